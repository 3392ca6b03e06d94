package router

import (
	"net/http"
	"strings"

	"github.com/canteenhq/api/internal/config"
	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/handler"
	mw "github.com/canteenhq/api/internal/middleware"
	"github.com/canteenhq/api/internal/service"
	"github.com/canteenhq/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Employee routes require authentication; back-office routes additionally
// require the admin role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services own their transactions; handlers get a store factory so a
	// whole order is written inside one tx.
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	partyService := service.NewPartyService(pool, func(db database.DBTX) service.PartyStore {
		return database.New(db)
	})
	homeMealService := service.NewHomeMealService(pool, func(db database.DBTX) service.HomeMealStore {
		return database.New(db)
	})
	stockService := service.NewStockService(pool, func(db database.DBTX) service.StockStore {
		return database.New(db)
	})
	statusService := service.NewStatusService(queries)

	sessionHandler := handler.NewSessionHandler(queries)
	menuHandler := handler.NewMenuHandler(queries)
	orderHandler := handler.NewOrderHandler(orderService, queries)
	partyHandler := handler.NewPartyHandler(partyService, queries)
	massageHandler := handler.NewMassageHandler(queries)
	beverageHandler := handler.NewBeverageHandler(queries)
	homeMealHandler := handler.NewHomeMealHandler(homeMealService, queries)
	estateHandler := handler.NewEstateHandler(queries)
	billingHandler := handler.NewBillingHandler(queries)
	adminOrderHandler := handler.NewAdminOrderHandler(statusService, queries, hub)
	roleHandler := handler.NewRoleHandler(queries)
	stockHandler := handler.NewStockHandler(stockService, queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterProtectedRoutes(r)
		sessionHandler.RegisterRoutes(r)
		menuHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		partyHandler.RegisterRoutes(r)
		massageHandler.RegisterRoutes(r)
		beverageHandler.RegisterRoutes(r)
		homeMealHandler.RegisterRoutes(r)
		estateHandler.RegisterRoutes(r)
		billingHandler.RegisterRoutes(r)

		// Back-office routes (admin role on top of authentication)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			sessionHandler.RegisterAdminRoutes(r)
			menuHandler.RegisterAdminRoutes(r)
			massageHandler.RegisterAdminRoutes(r)
			beverageHandler.RegisterAdminRoutes(r)
			estateHandler.RegisterAdminRoutes(r)
			adminOrderHandler.RegisterAdminRoutes(r)
			roleHandler.RegisterAdminRoutes(r)
			stockHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}
