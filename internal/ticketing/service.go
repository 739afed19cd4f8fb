package ticketing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/mailer"
	"github.com/troupekit/troupe-backend/internal/roster"
	"github.com/troupekit/troupe-backend/pkg/codes"
	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiptSender delivers buyer receipts. Sends are fire-and-forget; a nil
// sender disables them.
type ReceiptSender interface {
	SendOrderReceipt(ctx context.Context, receipt mailer.OrderReceipt)
}

// Service defines the ticketing operations: event management, the order
// engine, sale links and check-in.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.TicketEvent, error)
	UpdateEvent(ctx context.Context, eventID, directorID uuid.UUID, updates map[string]any) (*models.TicketEvent, error)
	DeleteEvent(ctx context.Context, eventID, directorID uuid.UUID) error
	ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error)
	ListPerformanceSales(ctx context.Context, eventID uuid.UUID) ([]PerformanceSales, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error)
	GenerateStudentLinks(ctx context.Context, eventID, ensembleID uuid.UUID) ([]models.StudentSaleLink, error)
	CheckIn(ctx context.Context, redemptionCode string) (*CheckInResult, error)
}

type service struct {
	repo   Repository
	roster roster.Repository
	tx     txRunner
	logg   *logger.Logger
	mail   ReceiptSender
}

// NewService wires the ticketing service.
func NewService(repo Repository, rosterRepo roster.Repository, tx txRunner, logg *logger.Logger, mail ReceiptSender) Service {
	return &service{repo: repo, roster: rosterRepo, tx: tx, logg: logg, mail: mail}
}

func (s *service) CreateEvent(ctx context.Context, input CreateEventInput) (*models.TicketEvent, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event title is required")
	}

	event := &models.TicketEvent{
		DirectorID:          input.DirectorID,
		EnsembleID:          input.EnsembleID,
		Title:               input.Title,
		Subtitle:            input.Subtitle,
		Description:         input.Description,
		ProgramNotes:        input.ProgramNotes,
		VenueName:           input.VenueName,
		VenueAddress:        input.VenueAddress,
		ParkingInstructions: input.ParkingInstructions,
		DressCode:           input.DressCode,
		Status:              enums.EventStatusDraft,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created, err := repo.CreateEvent(ctx, event)
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}

		performances := make([]models.Performance, 0, len(input.Performances))
		for _, p := range input.Performances {
			performances = append(performances, models.Performance{
				EventID:         created.ID,
				PerformanceDate: p.Date,
				DoorsOpenTime:   p.DoorsOpenTime,
				StartTime:       p.StartTime,
				EndTime:         p.EndTime,
				Capacity:        p.Capacity,
			})
		}
		if err := repo.CreatePerformances(ctx, performances); err != nil {
			return fmt.Errorf("creating performances: %w", err)
		}

		ticketTypes := make([]models.TicketType, 0, len(input.TicketTypes))
		for _, tt := range input.TicketTypes {
			seating := enums.SeatingType(tt.SeatingType)
			if !seating.IsValid() {
				seating = enums.SeatingGeneralAdmission
			}
			ticketTypes = append(ticketTypes, models.TicketType{
				EventID:           created.ID,
				Name:              tt.Name,
				Description:       tt.Description,
				Price:             money.DecimalFromCents(tt.PriceCents),
				SeatingType:       seating,
				QuantityAvailable: tt.QuantityAvailable,
				IsPublic:          tt.IsPublic,
				SortOrder:         tt.SortOrder,
			})
		}
		if err := repo.CreateTicketTypes(ctx, ticketTypes); err != nil {
			return fmt.Errorf("creating ticket types: %w", err)
		}

		event.Performances = performances
		event.TicketTypes = ticketTypes
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "create event")
	}

	return event, nil
}

func (s *service) UpdateEvent(ctx context.Context, eventID, directorID uuid.UUID, updates map[string]any) (*models.TicketEvent, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.DirectorID != directorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another director")
	}

	allowed := map[string]bool{
		"title": true, "subtitle": true, "description": true, "program_notes": true,
		"venue_name": true, "venue_address": true, "parking_instructions": true,
		"dress_code": true, "status": true,
	}
	filtered := map[string]any{}
	for key, value := range updates {
		if !allowed[key] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "field cannot be updated").
				WithDetails(map[string]string{key: "is not updatable"})
		}
		filtered[key] = value
	}
	if len(filtered) == 0 {
		return event, nil
	}
	if raw, ok := filtered["status"]; ok {
		str, _ := raw.(string)
		if _, err := enums.ParseEventStatus(str); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status").
				WithDetails(map[string]string{"status": "is invalid"})
		}
	}

	if err := s.repo.UpdateEvent(ctx, eventID, filtered); err != nil {
		return nil, err
	}
	return s.repo.FindEvent(ctx, eventID)
}

func (s *service) DeleteEvent(ctx context.Context, eventID, directorID uuid.UUID) error {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.DirectorID != directorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another director")
	}
	return s.repo.DeleteEvent(ctx, eventID)
}

func (s *service) ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	return s.repo.ListPublicTicketTypes(ctx, eventID)
}

// ListPerformanceSales reports the sold count per performance of an event.
func (s *service) ListPerformanceSales(ctx context.Context, eventID uuid.UUID) ([]PerformanceSales, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sales := make([]PerformanceSales, 0, len(event.Performances))
	for _, performance := range event.Performances {
		count, err := s.repo.CountSoldItems(ctx, performance.ID)
		if err != nil {
			return nil, err
		}
		sales = append(sales, PerformanceSales{Performance: performance, SoldCount: count})
	}
	return sales, nil
}

// CreateOrder records a completed sale as one atomic unit: the order row and
// one OrderItem per physical ticket, each with a fresh unique redemption
// code. Unit prices come from the ticket types, never from the client.
//
// Performance capacity is advisory and not checked here; CountSoldItems
// exposes the sold count so a reservation step can be added in front later.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if input.Buyer.Name == "" || input.Buyer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer name and email are required")
	}
	if input.DonationCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donation cannot be negative")
	}

	event, err := s.repo.FindEvent(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	var result OrderResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		performance, err := repo.FindPerformance(ctx, input.PerformanceID)
		if err != nil {
			return err
		}
		if performance.EventID != input.EventID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "performance does not belong to event")
		}

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.TicketTypeID)
		}
		ticketTypes, err := repo.FindTicketTypesByIDs(ctx, input.EventID, ids)
		if err != nil {
			return fmt.Errorf("loading ticket types: %w", err)
		}
		priceByType := make(map[uuid.UUID]int64, len(ticketTypes))
		for _, tt := range ticketTypes {
			priceByType[tt.ID] = money.CentsFromDecimal(tt.Price)
		}

		lineItems := make([]money.LineItem, 0, len(input.Items))
		for _, item := range input.Items {
			unitPrice, ok := priceByType[item.TicketTypeID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket type not found for event")
			}
			lineItems = append(lineItems, money.LineItem{
				UnitPriceCents: unitPrice,
				Quantity:       int64(item.Quantity),
			})
		}

		quote := money.Price(lineItems, input.DonationCents)

		order := &models.Order{
			EventID:            input.EventID,
			PerformanceID:      input.PerformanceID,
			StudentSaleLinkID:  input.SaleLinkID,
			BuyerEmail:         input.Buyer.Email,
			BuyerName:          input.Buyer.Name,
			BuyerPhone:         input.Buyer.Phone,
			Subtotal:           money.DecimalFromCents(quote.SubtotalCents),
			Fees:               money.DecimalFromCents(quote.FeeCents),
			Donation:           money.DecimalFromCents(quote.DonationCents),
			Total:              money.DecimalFromCents(quote.TotalCents),
			ExternalPaymentRef: input.ExternalPaymentRef,
			Status:             enums.OrderStatusCompleted,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		ctx = s.logg.WithField(ctx, "order_id", order.ID.String())

		items := make([]models.OrderItem, 0)
		for _, item := range input.Items {
			unitPrice := priceByType[item.TicketTypeID]
			for i := 0; i < item.Quantity; i++ {
				var created models.OrderItem
				_, err := codes.InsertUnique(ctx, "ticket", func(ctx context.Context, code string) error {
					created = models.OrderItem{
						OrderID:        order.ID,
						TicketTypeID:   item.TicketTypeID,
						UnitPrice:      money.DecimalFromCents(unitPrice),
						RedemptionCode: code,
					}
					return db.WithSavepoint(tx, "order_item", func() error {
						return repo.CreateOrderItem(ctx, &created)
					})
				})
				if err != nil {
					return err
				}
				items = append(items, created)
			}
		}

		s.logg.Info(ctx, fmt.Sprintf("order recorded with %d tickets", len(items)))
		result = OrderResult{Order: order, Items: items}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "create order")
	}

	if s.mail != nil {
		redemptionCodes := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			redemptionCodes = append(redemptionCodes, item.RedemptionCode)
		}
		s.mail.SendOrderReceipt(ctx, mailer.OrderReceipt{
			BuyerName:  input.Buyer.Name,
			BuyerEmail: input.Buyer.Email,
			EventTitle: event.Title,
			TotalCents: money.CentsFromDecimal(result.Order.Total),
			Codes:      redemptionCodes,
		})
	}

	return &result, nil
}

// GenerateStudentLinks seeds one durable sale link per active roster member.
// Re-running is idempotent: existing pairs keep their original code.
func (s *service) GenerateStudentLinks(ctx context.Context, eventID, ensembleID uuid.UUID) ([]models.StudentSaleLink, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	members, err := s.roster.ListActiveMembers(ctx, ensembleID)
	if err != nil {
		return nil, err
	}

	links := make([]models.StudentSaleLink, 0, len(members))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, member := range members {
			seed := fmt.Sprintf("%s %s %s", event.Title, member.FirstName, member.LastName)
			var link models.StudentSaleLink
			inserted := false
			_, err := codes.InsertUnique(ctx, seed, func(ctx context.Context, code string) error {
				link = models.StudentSaleLink{
					EventID:    eventID,
					RosterID:   member.ID,
					UniqueCode: code,
				}
				return db.WithSavepoint(tx, "sale_link", func() error {
					wrote, upsertErr := repo.UpsertSaleLink(ctx, &link)
					inserted = wrote
					return upsertErr
				})
			})
			if err != nil {
				return err
			}
			if !inserted {
				existing, findErr := repo.FindSaleLink(ctx, eventID, member.ID)
				if findErr != nil {
					return findErr
				}
				link = *existing
			}
			links = append(links, link)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "generate sale links")
	}

	return links, nil
}

// CheckIn redeems a ticket by its code. The second scan of the same code
// reports already-checked-in instead of redeeming twice.
func (s *service) CheckIn(ctx context.Context, redemptionCode string) (*CheckInResult, error) {
	if redemptionCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption code is required")
	}

	item, err := s.repo.FindOrderItemByCode(ctx, redemptionCode)
	if err != nil {
		return nil, err
	}
	if item.CheckedInAt != nil {
		return &CheckInResult{Item: item, AlreadyCheckedIn: true}, nil
	}

	if err := s.repo.MarkOrderItemCheckedIn(ctx, item.ID); err != nil {
		// lost the race with another scanner
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			refreshed, findErr := s.repo.FindOrderItemByCode(ctx, redemptionCode)
			if findErr != nil {
				return nil, findErr
			}
			return &CheckInResult{Item: refreshed, AlreadyCheckedIn: true}, nil
		}
		return nil, err
	}

	refreshed, err := s.repo.FindOrderItemByCode(ctx, redemptionCode)
	if err != nil {
		return nil, err
	}
	return &CheckInResult{Item: refreshed}, nil
}
