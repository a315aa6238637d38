package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/service"
)

// MarketService is the market surface the handlers need.
type MarketService interface {
	CreateMarket(ctx context.Context, p service.CreateMarketParams) (domain.Market, error)
	GetMarket(ctx context.Context, id string) (service.MarketView, error)
	ListMarkets(ctx context.Context, opts domain.ListOpts) ([]service.MarketView, error)
}

// MarketHandler serves market creation and reads.
type MarketHandler struct {
	svc    MarketService
	logger *slog.Logger
}

func NewMarketHandler(svc MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{svc: svc, logger: logger.With(slog.String("handler", "market"))}
}

type createMarketRequest struct {
	ProtocolID         string    `json:"protocol_id"`
	Metric             string    `json:"metric"`
	Comparator         string    `json:"comparator,omitempty"`
	TargetValue        uint64    `json:"target_value"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
	Description        string    `json:"description,omitempty"`
	Creator            string    `json:"creator"`
}

// Create handles POST /api/markets.
func (h *MarketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	creator, ok := parseAddress(w, "creator", req.Creator)
	if !ok {
		return
	}
	m, err := h.svc.CreateMarket(r.Context(), service.CreateMarketParams{
		ProtocolID:         req.ProtocolID,
		Metric:             domain.MetricKind(req.Metric),
		Comparator:         domain.Comparator(req.Comparator),
		TargetValue:        req.TargetValue,
		ResolutionDeadline: req.ResolutionDeadline,
		Description:        req.Description,
		Creator:            creator,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMarketView(m))
}

// Get handles GET /api/markets/{id}.
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetMarket(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMarketStateView(view))
}

// List handles GET /api/markets.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListMarkets(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]marketView, 0, len(views))
	for _, v := range views {
		out = append(out, toMarketStateView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": out, "count": len(out)})
}
