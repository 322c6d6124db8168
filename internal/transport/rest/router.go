package rest

import (
	"net/http"

	"survive/internal/service"
	"survive/internal/transport/rest/handler"
	"survive/internal/transport/rest/middleware"
	"survive/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	RoomService    *service.RoomService
	PlayerService  *service.PlayerService
	BoostService   *service.BoostService
	PaymentService *service.PaymentService
	WSHandler      *ws.Handler
	CORSOrigins    string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.PlayerService)
	roomHandler := handler.NewRoomHandler(c.RoomService, c.PlayerService)
	reportHandler := handler.NewReportHandler(c.RoomService, c.BoostService)
	paymentHandler := handler.NewPaymentHandler(c.PaymentService, c.PlayerService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Game socket; identity travels inside the messages
	if c.WSHandler != nil {
		v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")
	}

	// Public routes
	v1.HandleFunc("/sessions/verify", authHandler.Verify).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{id}/join", roomHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{id}/leaderboard", roomHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{id}/matches", reportHandler.Matches).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{id}/boosts", reportHandler.Boosts).Methods("GET", "OPTIONS")
	v1.HandleFunc("/payments/webhook", paymentHandler.Webhook).Methods("POST")

	// Seated player routes (require a session token)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequireSession)

	playerRoutes.HandleFunc("/rooms/{id}/start", roomHandler.Start).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{id}/end", roomHandler.End).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{id}/checkout", paymentHandler.Checkout).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
