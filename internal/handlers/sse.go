package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderContent(r *http.Request, view *models.DashboardView) (string, error) {
	var buf strings.Builder
	err := templates.Content(view).Render(r.Context(), &buf)
	return buf.String(), err
}

// HandleView re-renders the page for the navigation state held in the
// client's signals. It patches #content and then the chart specs, which
// the page script draws once the new containers exist.
func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFrom(r.Context(), h.logger)

	state := models.DefaultNavigation()
	if err := datastar.ReadSignals(r, &state); err != nil {
		writeError(w, r, logger, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	view, err := h.analytics.Render(r.Context(), state)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	html, err := h.renderContent(r, view)
	if err != nil {
		writeError(w, r, logger, errors.InternalWrap(err, "render content"))
		return
	}

	signals, err := json.Marshal(templates.SignalsFor(view))
	if err != nil {
		writeError(w, r, logger, errors.InternalWrap(err, "marshal signals"))
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElements(html); err != nil {
		logger.Warn("patch content", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch signals", "error", err)
		return
	}

	logger.Debug("view patched",
		"view", view.State.View,
		"indicator", view.State.Indicator,
		"charts", len(view.Charts()),
		"bytes", len(html)+len(signals),
	)
}
