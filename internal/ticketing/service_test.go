package ticketing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/mailer"
	"github.com/troupekit/troupe-backend/internal/roster"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/money"
)

type stubTicketingRepo struct {
	event           *models.TicketEvent
	performance     *models.Performance
	ticketTypes     []models.TicketType
	createdOrder    *models.Order
	createdItems    []models.OrderItem
	saleLinks       []models.StudentSaleLink
	createOrderItem func(ctx context.Context, item *models.OrderItem) error
	upsertSaleLink  func(ctx context.Context, link *models.StudentSaleLink) (bool, error)
	findSaleLink    func(ctx context.Context, eventID, rosterID uuid.UUID) (*models.StudentSaleLink, error)
	findItemByCode  func(ctx context.Context, code string) (*models.OrderItem, error)
	markCheckedIn   func(ctx context.Context, itemID uuid.UUID) error
	updates         map[string]any
}

func (s *stubTicketingRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTicketingRepo) CreateEvent(ctx context.Context, event *models.TicketEvent) (*models.TicketEvent, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.event = event
	return event, nil
}

func (s *stubTicketingRepo) FindEvent(ctx context.Context, eventID uuid.UUID) (*models.TicketEvent, error) {
	if s.event == nil || s.event.ID != eventID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return s.event, nil
}

func (s *stubTicketingRepo) UpdateEvent(ctx context.Context, eventID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func (s *stubTicketingRepo) DeleteEvent(ctx context.Context, eventID uuid.UUID) error { return nil }

func (s *stubTicketingRepo) CreatePerformances(ctx context.Context, performances []models.Performance) error {
	return nil
}

func (s *stubTicketingRepo) CreateTicketTypes(ctx context.Context, ticketTypes []models.TicketType) error {
	return nil
}

func (s *stubTicketingRepo) FindPerformance(ctx context.Context, performanceID uuid.UUID) (*models.Performance, error) {
	if s.performance == nil || s.performance.ID != performanceID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "performance not found")
	}
	return s.performance, nil
}

func (s *stubTicketingRepo) FindTicketTypesByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]models.TicketType, error) {
	matched := make([]models.TicketType, 0)
	for _, tt := range s.ticketTypes {
		for _, id := range ids {
			if tt.ID == id && tt.EventID == eventID {
				matched = append(matched, tt)
			}
		}
	}
	return matched, nil
}

func (s *stubTicketingRepo) ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	return s.ticketTypes, nil
}

func (s *stubTicketingRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.createdOrder = order
	return order, nil
}

func (s *stubTicketingRepo) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	if s.createOrderItem != nil {
		if err := s.createOrderItem(ctx, item); err != nil {
			return err
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.createdItems = append(s.createdItems, *item)
	return nil
}

func (s *stubTicketingRepo) FindOrderItemByCode(ctx context.Context, code string) (*models.OrderItem, error) {
	if s.findItemByCode != nil {
		return s.findItemByCode(ctx, code)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
}

func (s *stubTicketingRepo) MarkOrderItemCheckedIn(ctx context.Context, itemID uuid.UUID) error {
	if s.markCheckedIn != nil {
		return s.markCheckedIn(ctx, itemID)
	}
	return nil
}

func (s *stubTicketingRepo) CountSoldItems(ctx context.Context, performanceID uuid.UUID) (int64, error) {
	return int64(len(s.createdItems)), nil
}

func (s *stubTicketingRepo) UpsertSaleLink(ctx context.Context, link *models.StudentSaleLink) (bool, error) {
	if s.upsertSaleLink != nil {
		return s.upsertSaleLink(ctx, link)
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	s.saleLinks = append(s.saleLinks, *link)
	return true, nil
}

func (s *stubTicketingRepo) FindSaleLink(ctx context.Context, eventID, rosterID uuid.UUID) (*models.StudentSaleLink, error) {
	if s.findSaleLink != nil {
		return s.findSaleLink(ctx, eventID, rosterID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale link not found")
}

func (s *stubTicketingRepo) ListSaleLinks(ctx context.Context, eventID uuid.UUID) ([]models.StudentSaleLink, error) {
	return s.saleLinks, nil
}

type fakeRoster struct {
	members []models.RosterMember
}

func (f *fakeRoster) WithTx(tx *gorm.DB) roster.Repository { return f }

func (f *fakeRoster) FindEnsemble(ctx context.Context, ensembleID uuid.UUID) (*models.Ensemble, error) {
	return &models.Ensemble{ID: ensembleID}, nil
}

func (f *fakeRoster) ListActiveMembers(ctx context.Context, ensembleID uuid.UUID) ([]models.RosterMember, error) {
	return f.members, nil
}

func (f *fakeRoster) FindMember(ctx context.Context, memberID uuid.UUID) (*models.RosterMember, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func ticketType(eventID uuid.UUID, cents int64) models.TicketType {
	return models.TicketType{
		ID:      uuid.New(),
		EventID: eventID,
		Name:    "General Admission",
		Price:   money.DecimalFromCents(cents),
	}
}

func TestCreateOrder_OneItemPerTicket(t *testing.T) {
	eventID := uuid.New()
	performance := &models.Performance{ID: uuid.New(), EventID: eventID, PerformanceDate: time.Now(), StartTime: "19:00"}
	adult := ticketType(eventID, 2000)
	student := ticketType(eventID, 1000)
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase"},
		performance: performance,
		ticketTypes: []models.TicketType{adult, student},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana Whitfield", Email: "dana@example.com"},
		Items: []OrderItemInput{
			{TicketTypeID: adult.ID, Quantity: 2},
			{TicketTypeID: student.ID, Quantity: 1},
		},
		DonationCents: 500,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 order items, got %d", len(result.Items))
	}
	seen := map[string]bool{}
	for _, item := range result.Items {
		if item.RedemptionCode == "" {
			t.Fatal("order item missing redemption code")
		}
		if seen[item.RedemptionCode] {
			t.Fatalf("duplicate redemption code %q", item.RedemptionCode)
		}
		seen[item.RedemptionCode] = true
	}

	if got := money.CentsFromDecimal(result.Order.Subtotal); got != 5000 {
		t.Fatalf("subtotal = %d, want 5000", got)
	}
	// 3% of 5000 rounded half-up is 150, plus the 30 cent flat fee
	if got := money.CentsFromDecimal(result.Order.Fees); got != 180 {
		t.Fatalf("fees = %d, want 180", got)
	}
	if got := money.CentsFromDecimal(result.Order.Total); got != 5680 {
		t.Fatalf("total = %d, want 5680", got)
	}
	if result.Order.Status != enums.OrderStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Order.Status)
	}
}

func TestCreateOrder_RejectsEmptyCart(t *testing.T) {
	svc := NewService(&stubTicketingRepo{}, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       uuid.New(),
		PerformanceID: uuid.New(),
		Buyer:         Buyer{Name: "Dana", Email: "dana@example.com"},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrder_UnknownTicketType(t *testing.T) {
	eventID := uuid.New()
	performance := &models.Performance{ID: uuid.New(), EventID: eventID}
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase"},
		performance: performance,
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana", Email: "dana@example.com"},
		Items:         []OrderItemInput{{TicketTypeID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateOrder_PerformanceFromAnotherEvent(t *testing.T) {
	eventID := uuid.New()
	performance := &models.Performance{ID: uuid.New(), EventID: uuid.New()}
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase"},
		performance: performance,
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana", Email: "dana@example.com"},
		Items:         []OrderItemInput{{TicketTypeID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateOrder_RetriesRedemptionCodeCollision(t *testing.T) {
	eventID := uuid.New()
	performance := &models.Performance{ID: uuid.New(), EventID: eventID}
	adult := ticketType(eventID, 2000)
	attempts := 0
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase"},
		performance: performance,
		ticketTypes: []models.TicketType{adult},
		createOrderItem: func(ctx context.Context, item *models.OrderItem) error {
			attempts++
			if attempts == 1 {
				return pkgerrors.New(pkgerrors.CodeConflict, "redemption code already taken")
			}
			return nil
		},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana", Email: "dana@example.com"},
		Items:         []OrderItemInput{{TicketTypeID: adult.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", attempts)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(result.Items))
	}
}

func TestGenerateStudentLinks_KeepsExistingCodes(t *testing.T) {
	eventID := uuid.New()
	member := models.RosterMember{ID: uuid.New(), FirstName: "Ana", LastName: "Reyes", Status: enums.MemberStatusActive}
	existing := &models.StudentSaleLink{ID: uuid.New(), EventID: eventID, RosterID: member.ID, UniqueCode: "spring-gala-ana-reyes-k3m2q"}
	repo := &stubTicketingRepo{
		event: &models.TicketEvent{ID: eventID, Title: "Spring Gala"},
		upsertSaleLink: func(ctx context.Context, link *models.StudentSaleLink) (bool, error) {
			return false, nil
		},
		findSaleLink: func(ctx context.Context, evID, rosterID uuid.UUID) (*models.StudentSaleLink, error) {
			return existing, nil
		},
	}
	svc := NewService(repo, &fakeRoster{members: []models.RosterMember{member}}, stubTxRunner{}, testLogger(), nil)

	links, err := svc.GenerateStudentLinks(context.Background(), eventID, uuid.New())
	if err != nil {
		t.Fatalf("GenerateStudentLinks returned error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].UniqueCode != existing.UniqueCode {
		t.Fatalf("expected existing code %q preserved, got %q", existing.UniqueCode, links[0].UniqueCode)
	}
}

func TestCheckIn_SecondScanReportsAlreadyRedeemed(t *testing.T) {
	when := time.Now()
	item := &models.OrderItem{ID: uuid.New(), RedemptionCode: "ticket-abc12", CheckedInAt: &when}
	repo := &stubTicketingRepo{
		findItemByCode: func(ctx context.Context, code string) (*models.OrderItem, error) {
			return item, nil
		},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	result, err := svc.CheckIn(context.Background(), "ticket-abc12")
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if !result.AlreadyCheckedIn {
		t.Fatal("expected AlreadyCheckedIn to be true")
	}
}

func TestCheckIn_RedeemsFreshTicket(t *testing.T) {
	item := &models.OrderItem{ID: uuid.New(), RedemptionCode: "ticket-abc12"}
	marked := false
	repo := &stubTicketingRepo{
		findItemByCode: func(ctx context.Context, code string) (*models.OrderItem, error) {
			if marked {
				when := time.Now()
				redeemed := *item
				redeemed.CheckedInAt = &when
				return &redeemed, nil
			}
			return item, nil
		},
		markCheckedIn: func(ctx context.Context, itemID uuid.UUID) error {
			marked = true
			return nil
		},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	result, err := svc.CheckIn(context.Background(), "ticket-abc12")
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if result.AlreadyCheckedIn {
		t.Fatal("fresh ticket should not report already checked in")
	}
	if result.Item.CheckedInAt == nil {
		t.Fatal("expected check-in timestamp to be set")
	}
}

func TestUpdateEvent_ForbiddenForOtherDirector(t *testing.T) {
	owner := uuid.New()
	event := &models.TicketEvent{ID: uuid.New(), DirectorID: owner, Title: "Spring Gala"}
	repo := &stubTicketingRepo{event: event}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	_, err := svc.UpdateEvent(context.Background(), event.ID, uuid.New(), map[string]any{"title": "New"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestUpdateEvent_RejectsUnknownField(t *testing.T) {
	owner := uuid.New()
	event := &models.TicketEvent{ID: uuid.New(), DirectorID: owner, Title: "Spring Gala"}
	repo := &stubTicketingRepo{event: event}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	_, err := svc.UpdateEvent(context.Background(), event.ID, owner, map[string]any{"director_id": uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type capturedReceipt struct {
	receipts []mailer.OrderReceipt
}

func (c *capturedReceipt) SendOrderReceipt(ctx context.Context, receipt mailer.OrderReceipt) {
	c.receipts = append(c.receipts, receipt)
}

func TestCreateOrder_SendsReceiptWithAllCodes(t *testing.T) {
	eventID := uuid.New()
	performance := &models.Performance{ID: uuid.New(), EventID: eventID, PerformanceDate: time.Now(), StartTime: "19:00"}
	adult := ticketType(eventID, 2000)
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase"},
		performance: performance,
		ticketTypes: []models.TicketType{adult},
	}
	mail := &capturedReceipt{}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), mail)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana Whitfield", Email: "dana@example.com"},
		Items:         []OrderItemInput{{TicketTypeID: adult.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if len(mail.receipts) != 1 {
		t.Fatalf("expected one receipt, got %d", len(mail.receipts))
	}
	receipt := mail.receipts[0]
	if receipt.EventTitle != "Winter Showcase" || receipt.BuyerEmail != "dana@example.com" {
		t.Fatalf("receipt mislabeled: %+v", receipt)
	}
	if len(receipt.Codes) != len(result.Items) {
		t.Fatalf("receipt carries %d codes for %d tickets", len(receipt.Codes), len(result.Items))
	}
}

func TestListPerformanceSales_ReportsSoldCounts(t *testing.T) {
	eventID := uuid.New()
	performance := models.Performance{ID: uuid.New(), EventID: eventID, PerformanceDate: time.Now(), StartTime: "19:00"}
	adult := ticketType(eventID, 2000)
	repo := &stubTicketingRepo{
		event:       &models.TicketEvent{ID: eventID, Title: "Winter Showcase", Performances: []models.Performance{performance}},
		performance: &performance,
		ticketTypes: []models.TicketType{adult},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger(), nil)

	if _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		EventID:       eventID,
		PerformanceID: performance.ID,
		Buyer:         Buyer{Name: "Dana Whitfield", Email: "dana@example.com"},
		Items:         []OrderItemInput{{TicketTypeID: adult.ID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	sales, err := svc.ListPerformanceSales(context.Background(), eventID)
	if err != nil {
		t.Fatalf("ListPerformanceSales returned error: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("sales rows = %d, want 1", len(sales))
	}
	if sales[0].SoldCount != 3 {
		t.Fatalf("sold count = %d, want 3", sales[0].SoldCount)
	}
}
