package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/agentmarket/internal/application"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	registry       *application.RegistryService
	invocations    *application.InvocationService
	access         *application.AccessService
	accounts       *application.AccountService
	verifier       driven.IdentityVerifier
	airdropEnabled bool
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	registry *application.RegistryService,
	invocations *application.InvocationService,
	access *application.AccessService,
	accounts *application.AccountService,
	verifier driven.IdentityVerifier,
	airdropEnabled bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registry:       registry,
		invocations:    invocations,
		access:         access,
		accounts:       accounts,
		verifier:       verifier,
		airdropEnabled: airdropEnabled,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/services", h.RegisterService)
	mux.HandleFunc("GET /api/v1/services", h.ListServices)
	mux.HandleFunc("GET /api/v1/services/{id}", h.GetService)
	mux.HandleFunc("GET /api/v1/services/{id}/record", h.GetServiceRecord)
	mux.HandleFunc("POST /api/v1/services/{id}/invoke", h.InvokeService)
	mux.HandleFunc("GET /api/v1/services/{id}/invocations", h.ListInvocations)
	mux.HandleFunc("POST /api/v1/services/{id}/access-keys", h.RequestAccess)
	mux.HandleFunc("GET /api/v1/access-keys/{id}", h.GetAccessKey)
	mux.HandleFunc("GET /api/v1/access-keys/{id}/record", h.GetAccessKeyRecord)
	mux.HandleFunc("POST /api/v1/access-keys/{id}/redeem", h.RedeemAccessKey)
	mux.HandleFunc("GET /api/v1/accounts/{identity}", h.GetAccount)
	mux.HandleFunc("GET /api/v1/accounts/{identity}/transactions", h.ListTransactions)
	if h.airdropEnabled {
		mux.HandleFunc("POST /api/v1/accounts/{identity}/airdrop", h.Airdrop)
	}
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
