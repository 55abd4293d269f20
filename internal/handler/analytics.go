package handler

import (
	"net/http"

	"github.com/whatsdesk/console/internal/middleware"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/pkg/logger"
)

// AnalyticsHandler handles analytics endpoints.
type AnalyticsHandler struct {
	service *service.Analytics
	logger  *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(svc *service.Analytics, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  log,
	}
}

// Get handles GET /api/analytics: today's counters by default, or the
// requested date. Dates with no events return a zero-valued row.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.service.Today()
	} else if err := middleware.ValidateDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.ByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to get analytics")
		writeError(w, http.StatusInternalServerError, "failed to get analytics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
