// Package httpapi exposes the vault's REST surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/time_vault/internal/app/metrics"
	tlsvc "github.com/R3E-Network/time_vault/internal/app/services/timelock"
	"github.com/R3E-Network/time_vault/internal/middleware"
	"github.com/R3E-Network/time_vault/pkg/logger"
)

// handler bundles HTTP endpoints for the timelock service.
type handler struct {
	service *tlsvc.Service
	audit   *auditLog
	log     *logger.Logger
}

// RouterConfig carries the middleware dependencies for the API router.
type RouterConfig struct {
	AuthSecret        []byte
	RequestsPerSecond int
	Burst             int
	AllowedOrigins    []string
	AuditFile         string
	AuditMax          int
}

// NewRouter returns the assembled API router with authentication, rate
// limiting and metrics instrumentation.
func NewRouter(service *tlsvc.Service, cfg RouterConfig, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	sink, err := newFileAuditSink(cfg.AuditFile)
	if err != nil {
		log.WithError(err).Warn("audit sink unavailable; keeping entries in memory only")
	}
	audit := newAuditLog(cfg.AuditMax, sink)
	h := &handler{service: service, audit: audit, log: log}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/locks", h.initiateLock).Methods(http.MethodPost)
	r.HandleFunc("/locks", h.listLocks).Methods(http.MethodGet)
	r.HandleFunc("/locks/{asset}", h.maturityOf).Methods(http.MethodGet)
	r.HandleFunc("/locks/{asset}/balance", h.heldBalanceOf).Methods(http.MethodGet)
	r.HandleFunc("/locks/{asset}/release", h.release).Methods(http.MethodPost)

	r.HandleFunc("/controller", h.controller).Methods(http.MethodGet)
	r.HandleFunc("/controller/transfer", h.transferControl).Methods(http.MethodPost)
	r.HandleFunc("/controller/renounce", h.renounceControl).Methods(http.MethodPost)

	r.HandleFunc("/lock-duration", h.lockDuration).Methods(http.MethodGet)
	r.HandleFunc("/sweep", h.sweep).Methods(http.MethodPost)

	r.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/stream", h.streamEvents).Methods(http.MethodGet)
	r.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	auth := middleware.NewAuthMiddleware(cfg.AuthSecret, log, []string{"/healthz", "/metrics"})
	limiter := middleware.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, log)
	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins)
	tracing := middleware.NewTracingMiddleware(log)

	var chained http.Handler = r
	chained = audit.middleware(chained)
	chained = limiter.Handler(chained)
	chained = auth.Handler(chained)
	chained = cors.Handler(chained)
	chained = tracing.Handler(chained)
	return chained
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) initiateLock(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, tlsvc.ErrNotAuthorized)
		return
	}

	var payload struct {
		Asset  string `json:"asset"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, ok := new(big.Int).SetString(payload.Amount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("amount must be a decimal string"))
		return
	}

	lock, err := h.service.InitiateLock(r.Context(), caller, payload.Asset, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lock)
}

func (h *handler) listLocks(w http.ResponseWriter, r *http.Request) {
	locks, err := h.service.ListLocks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, locks)
}

func (h *handler) maturityOf(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]

	maturity, set, err := h.service.MaturityOf(r.Context(), asset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := struct {
		Asset    string     `json:"asset"`
		Locked   bool       `json:"locked"`
		Maturity *time.Time `json:"maturity,omitempty"`
	}{Asset: asset, Locked: set}
	if set {
		resp.Maturity = &maturity
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) heldBalanceOf(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]

	balance, err := h.service.HeldBalanceOf(r.Context(), asset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":   asset,
		"balance": balance.String(),
	})
}

func (h *handler) release(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, tlsvc.ErrNotAuthorized)
		return
	}

	asset := mux.Vars(r)["asset"]
	amount, err := h.service.Release(r.Context(), caller, asset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":    asset,
		"released": amount.String(),
	})
}

func (h *handler) controller(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"controller": h.service.Controller()})
}

func (h *handler) transferControl(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, tlsvc.ErrNotAuthorized)
		return
	}

	var payload struct {
		Controller string `json:"controller"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.Guard().TransferControl(caller, payload.Controller); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"controller": payload.Controller})
}

func (h *handler) renounceControl(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, tlsvc.ErrNotAuthorized)
		return
	}

	if err := h.service.Guard().Renounce(caller); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"controller": ""})
}

func (h *handler) lockDuration(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"lock_duration": h.service.LockDuration().String(),
	})
}

func (h *handler) sweep(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, tlsvc.ErrNotAuthorized)
		return
	}

	amount, err := h.service.SweepNative(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"swept": amount.String()})
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.service.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tlsvc.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, tlsvc.ErrInvalidAsset), errors.Is(err, tlsvc.ErrZeroAmount):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, tlsvc.ErrAlreadyLocked),
		errors.Is(err, tlsvc.ErrNotVested),
		errors.Is(err, tlsvc.ErrStillLocked),
		errors.Is(err, tlsvc.ErrNothingToRelease):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, tlsvc.ErrTransferPullFailed), errors.Is(err, tlsvc.ErrTransferPushFailed):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
