package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

const maxIngestBodyBytes = 64 << 10

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

type ingestFixturesRequest struct {
	Providers []string `json:"providers" validate:"omitempty,max=16,dive,required,max=32"`
	League    string   `json:"league" validate:"omitempty,max=64"`
	Date      string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Force     bool     `json:"force"`
}

func (h *Handler) RunIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunIngestion")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err))
		return
	}

	// The body is optional; an empty one ingests everything.
	var req ingestFixturesRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := strictJSON.Unmarshal(body, &req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if strings.TrimSpace(req.League) == "" {
		req.League = strings.TrimSpace(r.URL.Query().Get("league"))
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.IngestRequest{
		Providers: req.Providers,
		League:    req.League,
		Force:     req.Force,
	}
	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: date must be YYYY-MM-DD", usecase.ErrInvalidInput))
			return
		}
		input.Date = date
	}
	span.SetAttributes(ingestRequestAttributes(input)...)

	report, err := h.ingestionService.IngestAll(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "fixture ingestion failed", "providers", req.Providers, "league", req.League, "error", err)
		writeError(ctx, w, err)
		return
	}
	span.SetAttributes(ingestReportAttributes(report)...)

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListProviders")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.ingestionService.Providers())
}
