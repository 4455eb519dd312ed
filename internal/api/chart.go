package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
)

// hhmmss mirrors report.FormatSecondsValue for tooltip and axis labels.
const hhmmss = `function (v) {
	var ms = Math.round((typeof v === 'object' ? v.value : v) * 1000);
	var s = Math.floor(ms / 1000) % 60, m = Math.floor(ms / 60000) % 60, h = Math.floor(ms / 3600000);
	var pad = function (n) { return (n < 10 ? '0' : '') + n; };
	return pad(h) + ':' + pad(m) + ':' + pad(s);
}`

const tooltipFormatter = `function (p) {
	var f = ` + hhmmss + `;
	return p.name + '<br/>' + f(p.value);
}`

// newBarChart renders the per-file edit time as a bar chart.
func newBarChart(s report.Series) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: report.SeriesName,
			Width:     "100%",
			Height:    "400px",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Formatter: opts.FuncOpts(hhmmss)},
		}),
	)

	items := make([]opts.BarData, 0, s.Len())
	for i, v := range s.Values {
		items = append(items, opts.BarData{Name: s.Labels[i], Value: v})
	}
	bar.SetXAxis(s.Labels).AddSeries(report.SeriesName, items,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#60a5fa"}),
	)
	return bar
}

// chartPage serves the chart as a standalone page for the dashboard iframe.
func (h *Handler) chartPage(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v := h.buildView(r, sess)

	var buf bytes.Buffer
	if err := newBarChart(v.Series).Render(&buf); err != nil {
		slog.Error("failed to render chart", "error", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
