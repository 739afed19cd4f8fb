package ticketing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// Repository defines persistence operations for the ticketing tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEvent(ctx context.Context, event *models.TicketEvent) (*models.TicketEvent, error)
	FindEvent(ctx context.Context, eventID uuid.UUID) (*models.TicketEvent, error)
	UpdateEvent(ctx context.Context, eventID uuid.UUID, updates map[string]any) error
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
	CreatePerformances(ctx context.Context, performances []models.Performance) error
	CreateTicketTypes(ctx context.Context, ticketTypes []models.TicketType) error
	FindPerformance(ctx context.Context, performanceID uuid.UUID) (*models.Performance, error)
	FindTicketTypesByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]models.TicketType, error)
	ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error)

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	FindOrderItemByCode(ctx context.Context, code string) (*models.OrderItem, error)
	MarkOrderItemCheckedIn(ctx context.Context, itemID uuid.UUID) error
	CountSoldItems(ctx context.Context, performanceID uuid.UUID) (int64, error)

	UpsertSaleLink(ctx context.Context, link *models.StudentSaleLink) (bool, error)
	FindSaleLink(ctx context.Context, eventID, rosterID uuid.UUID) (*models.StudentSaleLink, error)
	ListSaleLinks(ctx context.Context, eventID uuid.UUID) ([]models.StudentSaleLink, error)
}
