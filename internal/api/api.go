package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

type snapshotInfo struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	Generation uint64    `json:"generation"`
	Reports    int       `json:"reports"`
	Rejected   int       `json:"rejected"`
	FetchError string    `json:"fetch_error,omitempty"`
}

func newSnapshotInfo(s *store.Snapshot) snapshotInfo {
	info := snapshotInfo{
		Source:     s.Source,
		FetchedAt:  s.FetchedAt,
		Generation: s.Generation,
		Reports:    len(s.Reports),
		Rejected:   len(s.Rejected),
	}
	if s.Err != nil {
		info.FetchError = s.Err.Error()
	}
	return info
}

type rangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type metricsResponse struct {
	report.Metrics
	InactivePercentage float64 `json:"inactive_percentage"`
	Productive         string  `json:"productive"`
	Inactivity         string  `json:"inactivity"`
}

func newMetricsResponse(m report.Metrics) metricsResponse {
	return metricsResponse{
		Metrics:            m,
		InactivePercentage: m.InactivePercentage(),
		Productive:         report.FormatMillis(m.TotalProductiveMs),
		Inactivity:         report.FormatMillis(m.TotalInactivityMs),
	}
}

type chartResponse struct {
	Name string `json:"name"`
	report.Series
	Formatted []string `json:"formatted"`
}

func newChartResponse(s report.Series) chartResponse {
	formatted := make([]string, len(s.Values))
	for i, v := range s.Values {
		formatted[i] = report.FormatSecondsValue(v)
	}
	return chartResponse{Name: report.SeriesName, Series: s, Formatted: formatted}
}

type dashboardResponse struct {
	report.Dashboard
	Range    rangeResponse   `json:"range"`
	Metrics  metricsResponse `json:"metrics"`
	Chart    chartResponse   `json:"chart"`
	Snapshot snapshotInfo    `json:"snapshot"`
}

// resolve evaluates the request, writing a 400 for malformed filters.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, sess *auth.Session) (view, bool) {
	v := h.buildView(r, sess)
	if v.QueryErr != nil {
		writeError(w, http.StatusBadRequest, v.QueryErr.Error())
		return v, false
	}
	return v, true
}

// getDashboard returns everything the dashboard shows for one filter state
// GET /api/v1/dashboard?user=u&project=p&from=2025-05-01&to=2025-05-10&action=save
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v, ok := h.resolve(w, r, sess)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Dashboard: v.Dashboard,
		Range:     rangeResponse{Start: v.Range.Start, End: v.Range.End},
		Metrics:   newMetricsResponse(v.Metrics),
		Chart:     newChartResponse(v.Series),
		Snapshot:  newSnapshotInfo(v.Snapshot),
	})
}

// getReports returns the filtered reports
// GET /api/v1/reports
func (h *Handler) getReports(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v, ok := h.resolve(w, r, sess)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":     v.Reports,
		"count":    len(v.Reports),
		"snapshot": newSnapshotInfo(v.Snapshot),
	})
}

// getMetrics returns the KPI roll-ups
// GET /api/v1/metrics
func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v, ok := h.resolve(w, r, sess)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  newMetricsResponse(v.Metrics),
		"start": v.Range.Start.Format(time.RFC3339),
		"end":   v.Range.End.Format(time.RFC3339),
	})
}

// getChart returns the edit-time series per file
// GET /api/v1/chart
func (h *Handler) getChart(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v, ok := h.resolve(w, r, sess)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": newChartResponse(v.Series)})
}

// getLogs returns the projected activity log
// GET /api/v1/logs?action=save&action=open
func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v, ok := h.resolve(w, r, sess)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":         v.Activities,
		"action_types": v.ActionTypes,
		"total":        len(v.Activities),
	})
}

// export downloads the filtered reports as relatorio.json
// GET /api/v1/export
func (h *Handler) export(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v := h.buildView(r, sess)
	if v.QueryErr != nil {
		writeError(w, http.StatusBadRequest, v.QueryErr.Error())
		return
	}

	data, err := report.MarshalExport(v.Reports)
	if err != nil {
		slog.Error("failed to encode export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export reports")
		return
	}

	w.Header().Set("Content-Type", report.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
	slog.Info("exported reports", "count", len(v.Reports), "email", sess.Identity.Email)
}

// reload re-fetches the session's snapshot
// POST /api/v1/reload
func (h *Handler) reload(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	snap := sess.Reload(r.Context(), h.loader)
	writeJSON(w, http.StatusOK, map[string]any{"data": newSnapshotInfo(snap)})
}
