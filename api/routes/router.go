package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/troupekit/troupe-backend/api/controllers"
	webhookcontrollers "github.com/troupekit/troupe-backend/api/controllers/webhooks"
	"github.com/troupekit/troupe-backend/api/middleware"
	"github.com/troupekit/troupe-backend/internal/campaigns"
	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/internal/fees"
	"github.com/troupekit/troupe-backend/internal/payments"
	"github.com/troupekit/troupe-backend/internal/ticketing"
	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/redis"
)

// RedisStore is the slice of pkg/redis the router wires: readiness pings
// and the idempotency response cache.
type RedisStore interface {
	redis.Pinger
	redis.IdempotencyStore
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    RedisStore
	Registry *prometheus.Registry

	Ticketing ticketing.Service
	Campaigns campaigns.Service
	Donors    donors.Service
	Fees      fees.Service
	Payments  payments.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/events/{eventID}/ticket-types", controllers.ListPublicTicketTypes(deps.Ticketing, logg))

		// Buyer checkout: no auth, idempotent on retry.
		if deps.Redis != nil {
			r.With(middleware.Idempotency(deps.Redis, logg)).Post("/orders", controllers.CreateOrder(deps.Ticketing, logg))
		} else {
			r.Post("/orders", controllers.CreateOrder(deps.Ticketing, logg))
		}
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentConfirmation(deps.Payments, cfg.Payments.WebhookSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.CreateEvent(deps.Ticketing, logg))
			r.Patch("/{eventID}", controllers.UpdateEvent(deps.Ticketing, logg))
			r.Delete("/{eventID}", controllers.DeleteEvent(deps.Ticketing, logg))
			r.Post("/{eventID}/sale-links", controllers.GenerateStudentLinks(deps.Ticketing, logg))
			r.Get("/{eventID}/performances", controllers.ListPerformanceSales(deps.Ticketing, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Ticketing, logg))
			r.Post("/check-in", controllers.CheckIn(deps.Ticketing, logg))
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", controllers.CreateCampaign(deps.Campaigns, logg))
			r.Get("/{campaignID}", controllers.GetCampaign(deps.Campaigns, logg))
			r.Post("/{campaignID}/participants", controllers.SeedParticipants(deps.Campaigns, logg))
			r.Post("/{campaignID}/donations", controllers.RecordManualDonation(deps.Payments, logg))
		})

		r.Route("/donors", func(r chi.Router) {
			r.Get("/", controllers.ListDonors(deps.Donors, logg))
			r.Get("/{donorID}", controllers.GetDonor(deps.Donors, logg))
			r.Patch("/{donorID}", controllers.UpdateDonor(deps.Donors, logg))
			r.Post("/{donorID}/activities", controllers.AppendDonorActivity(deps.Donors, logg))
			r.Post("/{donorID}/link-donation", controllers.LinkDonation(deps.Donors, logg))
		})

		r.Route("/fees", func(r chi.Router) {
			r.Post("/definitions", controllers.CreateFeeDefinition(deps.Fees, logg))
			r.Get("/definitions", controllers.ListFeeDefinitions(deps.Fees, logg))
			r.Post("/assignments", controllers.AssignFees(deps.Fees, logg))
			r.Get("/members/{studentID}", controllers.FeeMemberSummary(deps.Fees, logg))
			r.Get("/summary", controllers.FeeEnsembleSummary(deps.Fees, logg))
			r.Post("/payments", controllers.RecordFeePayment(deps.Fees, logg))
		})
	})

	return r
}
