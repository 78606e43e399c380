package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jewelcost/core/gemstones"
	"jewelcost/core/metals"
	"jewelcost/core/pricing"
	"jewelcost/core/rates"
	"jewelcost/internal/errors"
)

// Handler handles pricing requests. It contains no pricing logic;
// everything is delegated to the core packages.
type Handler struct {
	calc       *pricing.Calculator
	metals     *metals.Source
	table      *rates.Table
	validate   *validator.Validate
	adminToken string
	logger     *zap.Logger
}

// NewHandler creates a handler with its engine collaborators.
func NewHandler(calc *pricing.Calculator, metalSource *metals.Source, table *rates.Table, adminToken string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		calc:       calc,
		metals:     metalSource,
		table:      table,
		validate:   validator.New(),
		adminToken: adminToken,
		logger:     logger,
	}
}

// HandleQuote handles POST /v1/quote.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if !h.table.KnownJewelryType(req.JewelryType) {
		h.writeError(w, "VALIDATION_ERROR", "unknown jewelry type: "+req.JewelryType, http.StatusBadRequest)
		return
	}

	breakdown, err := h.calc.Advanced(r.Context(), req.toAdvancedRequest())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, QuoteResponse{
		QuoteID:   uuid.NewString(),
		Breakdown: breakdown,
	}, http.StatusOK)
}

// HandleQuickQuote handles POST /v1/quote/quick.
func (h *Handler) HandleQuickQuote(w http.ResponseWriter, r *http.Request) {
	var req QuickQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if !h.table.KnownJewelryType(req.JewelryType) {
		h.writeError(w, "VALIDATION_ERROR", "unknown jewelry type: "+req.JewelryType, http.StatusBadRequest)
		return
	}

	breakdown, err := h.calc.Legacy(r.Context(), req.toLegacyRequest())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, QuickQuoteResponse{
		QuoteID:   uuid.NewString(),
		Breakdown: breakdown,
	}, http.StatusOK)
}

// HandleMetals handles GET /v1/metals.
func (h *Handler) HandleMetals(w http.ResponseWriter, r *http.Request) {
	prices := h.metals.PricesSafe(r.Context())
	fresh, remaining := h.metals.Fresh(r.Context())

	h.writeJSON(w, MetalsResponse{
		Prices:     prices,
		Fresh:      fresh,
		TTLSeconds: int64(remaining.Seconds()),
	}, http.StatusOK)
}

// HandleMetalsRefresh handles POST /v1/metals/refresh. Gated by the
// shared administrative secret.
func (h *Handler) HandleMetalsRefresh(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" || r.Header.Get("X-Admin-Token") != h.adminToken {
		h.writeError(w, "FORBIDDEN", "invalid admin token", http.StatusForbidden)
		return
	}

	prices, err := h.metals.Refresh(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, MetalsResponse{
		Prices:     prices,
		Fresh:      true,
		TTLSeconds: int64(0),
	}, http.StatusOK)
}

// HandleStoneEstimate handles GET /v1/stones/estimate.
func (h *Handler) HandleStoneEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size := gemstones.Size{Category: gemstones.SizeCategory(q.Get("size"))}
	if caratStr := q.Get("carat"); caratStr != "" {
		carat, err := strconv.ParseFloat(caratStr, 64)
		if err != nil || carat <= 0 {
			h.writeError(w, "VALIDATION_ERROR", "carat must be a positive number", http.StatusBadRequest)
			return
		}
		size.Carat = carat
	}

	price, err := gemstones.QuickDiamondEstimate(size, gemstones.Quality(q.Get("quality")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, StoneEstimateResponse{
		Price:    price.Round(0),
		Currency: pricing.Currency,
	}, http.StatusOK)
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// writeEngineError maps a domain error to an HTTP status.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var status int
	var code string

	if e, ok := err.(*errors.Error); ok {
		code = string(e.Type)
		switch e.Type {
		case errors.TypeInput:
			status = http.StatusBadRequest
		case errors.TypeNotFound:
			status = http.StatusNotFound
		case errors.TypeUpstream:
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	} else {
		code = string(errors.TypeInternal)
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		h.logger.Error("request failed", zap.Error(err))
	}

	h.writeError(w, code, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, code, message string, status int) {
	h.writeJSON(w, errorResponse{
		Error: errorDetail{Code: code, Message: message},
	}, status)
}
