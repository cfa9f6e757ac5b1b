package transport

import (
	"net/http"

	"airpool/internal/shared/logger"
)

// NewRouter собирает все маршруты Pool Service
func NewRouter(h *HTTPHandler, authMiddleware func(http.HandlerFunc) http.HandlerFunc, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	// business
	mux.HandleFunc("GET /rides/{ride_id}", authMiddleware(h.handleGetRide))
	mux.HandleFunc("POST /rides/{ride_id}/members/{membership_id}/admit", authMiddleware(h.handleAdmit))
	mux.HandleFunc("POST /rides/{ride_id}/members/{membership_id}/expel", authMiddleware(h.handleExpel))
	mux.HandleFunc("POST /rides/{ride_id}/members/{membership_id}/proposal", authMiddleware(h.handleProposeChange))
	mux.HandleFunc("POST /rides/{ride_id}/owner/drop", authMiddleware(h.handleDropOwner))
	mux.HandleFunc("POST /rides/{ride_id}/reset", authMiddleware(h.handleReset))
	mux.HandleFunc("POST /rides/{ride_id}/spin-off", authMiddleware(h.handleSpinOff))
	mux.HandleFunc("POST /riders/{rider_id}/drop-out", authMiddleware(h.handleDropOut))
	mux.HandleFunc("POST /riders/cascade", authMiddleware(h.handleCascade))

	log.Info(logger.Entry{
		Action:  "http_routes_registered",
		Message: "Pool routes registered",
	})
	return mux
}
