package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

type fixtureDTO struct {
	ProviderID      string          `json:"provider_id"`
	Provider        string          `json:"provider"`
	NativeID        string          `json:"native_id"`
	League          string          `json:"league"`
	HomeTeam        string          `json:"home_team"`
	AwayTeam        string          `json:"away_team"`
	KickoffAt       *time.Time      `json:"kickoff_at"`
	Status          string          `json:"status"`
	StatusCanonical string          `json:"status_canonical"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	RawPayload      json.RawMessage `json:"raw_payload,omitempty"`
}

func fixtureToDTO(item fixture.Fixture, withPayload bool) fixtureDTO {
	dto := fixtureDTO{
		ProviderID:      item.ProviderID,
		Provider:        item.Provider,
		NativeID:        item.NativeID,
		League:          item.League,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		KickoffAt:       item.Kickoff,
		Status:          item.Status,
		StatusCanonical: string(item.StatusCanonical),
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
	if withPayload && json.Valid(item.RawPayload) {
		dto.RawPayload = json.RawMessage(item.RawPayload)
	}
	return dto
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	query := r.URL.Query()
	input := usecase.ListFixturesInput{
		League:   query.Get("league"),
		Provider: query.Get("provider"),
	}

	if raw := strings.TrimSpace(query.Get("days_ahead")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: days_ahead must be an integer", usecase.ErrInvalidInput))
			return
		}
		input.DaysAhead = &days
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		input.Limit = limit
	}

	items, err := h.fixtureService.List(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "league", input.League, "provider", input.Provider, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item, false))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	providerID := strings.TrimSpace(r.PathValue("providerID"))
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture", attribute.String("fixture.provider_id", providerID))
	defer span.End()

	item, err := h.fixtureService.Get(ctx, providerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "provider_id", providerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item, true))
}

func (h *Handler) GetFixtureStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixtureStats")
	defer span.End()

	stats, err := h.fixtureService.Stats(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "fixture stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stats)
}
