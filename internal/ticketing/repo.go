package ticketing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ticketing repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEvent(ctx context.Context, event *models.TicketEvent) (*models.TicketEvent, error) {
	if err := r.db.WithContext(ctx).Omit("Performances", "TicketTypes").Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) FindEvent(ctx context.Context, eventID uuid.UUID) (*models.TicketEvent, error) {
	var event models.TicketEvent
	err := r.db.WithContext(ctx).
		Preload("Performances").
		Preload("TicketTypes").
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) UpdateEvent(ctx context.Context, eventID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.TicketEvent{}).
		Where("id = ?", eventID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return nil
}

func (r *repository) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", eventID).
		Delete(&models.TicketEvent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return nil
}

func (r *repository) CreatePerformances(ctx context.Context, performances []models.Performance) error {
	if len(performances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&performances).Error
}

func (r *repository) CreateTicketTypes(ctx context.Context, ticketTypes []models.TicketType) error {
	if len(ticketTypes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ticketTypes).Error
}

func (r *repository) FindPerformance(ctx context.Context, performanceID uuid.UUID) (*models.Performance, error) {
	var performance models.Performance
	err := r.db.WithContext(ctx).
		Where("id = ?", performanceID).
		First(&performance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "performance not found")
		}
		return nil, err
	}
	return &performance, nil
}

func (r *repository) FindTicketTypesByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]models.TicketType, error) {
	var ticketTypes []models.TicketType
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, ids).
		Find(&ticketTypes).Error
	if err != nil {
		return nil, err
	}
	return ticketTypes, nil
}

func (r *repository) ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	var ticketTypes []models.TicketType
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND is_public = ?", eventID, true).
		Order("sort_order ASC, created_at ASC").
		Find(&ticketTypes).Error
	if err != nil {
		return nil, err
	}
	return ticketTypes, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrderItem maps a redemption-code collision onto a conflict error so
// the caller's retry budget can draw a fresh code.
func (r *repository) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if db.IsUniqueViolation(err, "uq_order_items_redemption_code") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "redemption code already taken")
		}
		return err
	}
	return nil
}

func (r *repository) FindOrderItemByCode(ctx context.Context, code string) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("redemption_code = ?", code).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) MarkOrderItemCheckedIn(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND checked_in_at IS NULL", itemID).
		Update("checked_in_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "ticket already checked in")
	}
	return nil
}

func (r *repository) CountSoldItems(ctx context.Context, performanceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.performance_id = ?", performanceID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpsertSaleLink inserts-or-ignores on (event_id, roster_id). The returned
// bool reports whether a new row was written; a code collision with another
// member's link still surfaces as a conflict for the retry budget.
func (r *repository) UpsertSaleLink(ctx context.Context, link *models.StudentSaleLink) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "roster_id"}},
			DoNothing: true,
		}).
		Create(link)
	if result.Error != nil {
		if db.IsUniqueViolation(result.Error, "uq_sale_links_unique_code") {
			return false, pkgerrors.Wrap(pkgerrors.CodeConflict, result.Error, "sale link code already taken")
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindSaleLink(ctx context.Context, eventID, rosterID uuid.UUID) (*models.StudentSaleLink, error) {
	var link models.StudentSaleLink
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND roster_id = ?", eventID, rosterID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale link not found")
		}
		return nil, err
	}
	return &link, nil
}

func (r *repository) ListSaleLinks(ctx context.Context, eventID uuid.UUID) ([]models.StudentSaleLink, error) {
	var links []models.StudentSaleLink
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
