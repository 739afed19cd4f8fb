package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/internal/campaigns"
	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/internal/fees"
	"github.com/troupekit/troupe-backend/internal/payments"
	"github.com/troupekit/troupe-backend/internal/ticketing"
	pkgauth "github.com/troupekit/troupe-backend/pkg/auth"
	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/pagination"
)

type stubTicketing struct {
	publicTypes []models.TicketType
	orderCalls  int
}

func (s *stubTicketing) CreateEvent(ctx context.Context, input ticketing.CreateEventInput) (*models.TicketEvent, error) {
	return &models.TicketEvent{ID: uuid.New(), Title: input.Title}, nil
}

func (s *stubTicketing) UpdateEvent(ctx context.Context, eventID, directorID uuid.UUID, updates map[string]any) (*models.TicketEvent, error) {
	return &models.TicketEvent{ID: eventID}, nil
}

func (s *stubTicketing) DeleteEvent(ctx context.Context, eventID, directorID uuid.UUID) error {
	return nil
}

func (s *stubTicketing) ListPublicTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	return s.publicTypes, nil
}

func (s *stubTicketing) ListPerformanceSales(ctx context.Context, eventID uuid.UUID) ([]ticketing.PerformanceSales, error) {
	return nil, nil
}

func (s *stubTicketing) CreateOrder(ctx context.Context, input ticketing.CreateOrderInput) (*ticketing.OrderResult, error) {
	s.orderCalls++
	return &ticketing.OrderResult{Order: &models.Order{ID: uuid.New()}}, nil
}

func (s *stubTicketing) GenerateStudentLinks(ctx context.Context, eventID, ensembleID uuid.UUID) ([]models.StudentSaleLink, error) {
	return nil, nil
}

func (s *stubTicketing) CheckIn(ctx context.Context, redemptionCode string) (*ticketing.CheckInResult, error) {
	return &ticketing.CheckInResult{}, nil
}

type stubCampaigns struct{}

func (stubCampaigns) CreateCampaign(ctx context.Context, input campaigns.CreateCampaignInput) (*campaigns.CampaignResult, error) {
	return &campaigns.CampaignResult{Campaign: &models.Campaign{ID: uuid.New(), Name: input.Name}}, nil
}

func (stubCampaigns) GetCampaign(ctx context.Context, campaignID uuid.UUID) (*campaigns.CampaignResult, error) {
	return &campaigns.CampaignResult{Campaign: &models.Campaign{ID: campaignID}}, nil
}

func (stubCampaigns) SeedParticipants(ctx context.Context, campaignID uuid.UUID) (*campaigns.CampaignResult, error) {
	return &campaigns.CampaignResult{Campaign: &models.Campaign{ID: campaignID}}, nil
}

type stubDonors struct{}

func (stubDonors) GetDonor(ctx context.Context, donorID uuid.UUID) (*donors.Detail, error) {
	return &donors.Detail{Donor: &models.Donor{ID: donorID}}, nil
}

func (stubDonors) ListDonors(ctx context.Context, ensembleID uuid.UUID, filters donors.ListFilters, params pagination.Params) ([]models.Donor, error) {
	return nil, nil
}

func (stubDonors) UpdateDonor(ctx context.Context, donorID uuid.UUID, updates map[string]any) (*models.Donor, error) {
	return &models.Donor{ID: donorID}, nil
}

func (stubDonors) AppendActivity(ctx context.Context, donorID uuid.UUID, input donors.ActivityInput) (*models.DonorActivity, error) {
	return &models.DonorActivity{ID: uuid.New()}, nil
}

func (stubDonors) LinkDonation(ctx context.Context, donorID, donationID uuid.UUID) error {
	return nil
}

func (stubDonors) Recompute(ctx context.Context, donorID uuid.UUID) (*donors.Aggregates, error) {
	return &donors.Aggregates{}, nil
}

type stubFees struct{}

func (stubFees) CreateDefinition(ctx context.Context, input fees.DefinitionInput) (*models.FeeDefinition, error) {
	return &models.FeeDefinition{ID: uuid.New()}, nil
}

func (stubFees) ListDefinitions(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeDefinition, error) {
	return nil, nil
}

func (stubFees) Assign(ctx context.Context, input fees.AssignmentInput) ([]models.FeeAssignment, error) {
	return nil, nil
}

func (stubFees) MemberSummary(ctx context.Context, ensembleID, studentID uuid.UUID) (*fees.MemberSummary, error) {
	return &fees.MemberSummary{StudentID: studentID}, nil
}

func (stubFees) EnsembleSummary(ctx context.Context, ensembleID uuid.UUID) (*fees.EnsembleSummary, error) {
	return &fees.EnsembleSummary{EnsembleID: ensembleID}, nil
}

func (stubFees) RecordManualFeePayment(ctx context.Context, input fees.PaymentInput) (*fees.PaymentResult, error) {
	return &fees.PaymentResult{}, nil
}

type stubPayments struct{}

func (stubPayments) ProcessConfirmation(ctx context.Context, input payments.ConfirmationInput) (*payments.Outcome, error) {
	return &payments.Outcome{Applied: true}, nil
}

func (stubPayments) RecordManualDonation(ctx context.Context, input payments.ManualDonationInput) (*payments.Outcome, error) {
	return &payments.Outcome{Applied: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "troupe"},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Ticketing: &stubTicketing{},
		Campaigns: stubCampaigns{},
		Donors:    stubDonors{},
		Fees:      stubFees{},
		Payments:  stubPayments{},
	})
}

func mintToken(t *testing.T, cfg config.JWTConfig, directorID uuid.UUID) string {
	t.Helper()
	claims := pkgauth.AccessTokenClaims{
		DirectorID: directorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestRouter_PublicRoutesNeedNoAuth(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health/live", "/api/public/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/public/events/"+uuid.NewString()+"/ticket-types", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("public ticket types: expected 200, got %d", rec.Code)
	}
}

func TestRouter_PrivateRoutesRejectMissingToken(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_PrivateRouteAcceptsBearerToken(t *testing.T) {
	router := testRouter(t)
	cfg := testConfig()
	token := mintToken(t, cfg.JWT, uuid.New())

	body := `{"name":"Spring Trip"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_WebhookRejectsUnsignedPayload(t *testing.T) {
	cfg := testConfig()
	cfg.Payments.WebhookSecret = "whsec_test"
	router := NewRouter(Deps{
		Config:    cfg,
		Logger:    logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Ticketing: &stubTicketing{},
		Campaigns: stubCampaigns{},
		Donors:    stubDonors{},
		Fees:      stubFees{},
		Payments:  stubPayments{},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unsigned webhook, got %d", rec.Code)
	}
}

type fakeIdempotencyStore struct {
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: make(map[string]string)}
}

func (f *fakeIdempotencyStore) Ping(context.Context) error { return nil }

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func orderBody() string {
	return `{"event_id":"` + uuid.NewString() + `","performance_id":"` + uuid.NewString() +
		`","buyer_name":"Dana Whitfield","buyer_email":"dana@example.com","items":[{"ticket_type_id":"` +
		uuid.NewString() + `","quantity":2}]}`
}

func TestRouter_CommercePostsRequireIdempotencyKey(t *testing.T) {
	svc := &stubTicketing{}
	router := NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Redis:     newFakeIdempotencyStore(),
		Ticketing: svc,
		Campaigns: stubCampaigns{},
		Donors:    stubDonors{},
		Fees:      stubFees{},
		Payments:  stubPayments{},
	})
	token := mintToken(t, testConfig().JWT, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody()))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("authed order without Idempotency-Key: expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/public/orders", strings.NewReader(orderBody()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("public order without Idempotency-Key: expected 400, got %d", rec.Code)
	}
	if svc.orderCalls != 0 {
		t.Fatalf("order service ran %d times without a key", svc.orderCalls)
	}
}

func TestRouter_PublicCheckoutReplaysCachedResponse(t *testing.T) {
	svc := &stubTicketing{}
	router := NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Redis:     newFakeIdempotencyStore(),
		Ticketing: svc,
		Campaigns: stubCampaigns{},
		Donors:    stubDonors{},
		Fees:      stubFees{},
		Payments:  stubPayments{},
	})

	body := orderBody()
	first := httptest.NewRequest(http.MethodPost, "/api/public/orders", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "order-retry-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	retry := httptest.NewRequest(http.MethodPost, "/api/public/orders", strings.NewReader(body))
	retry.Header.Set("Idempotency-Key", "order-retry-1")
	replay := httptest.NewRecorder()
	router.ServeHTTP(replay, retry)
	if replay.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d", replay.Code)
	}
	if replay.Body.String() != rec.Body.String() {
		t.Fatalf("replay body differs from original:\n%s\nvs\n%s", replay.Body.String(), rec.Body.String())
	}
	if svc.orderCalls != 1 {
		t.Fatalf("order service ran %d times, want 1 (second delivery replayed)", svc.orderCalls)
	}
}
