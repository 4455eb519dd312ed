package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/charlie0129/timetocode-dashboard/internal/report"
)

const periodLayout = "02/01/2006"

// RenderSummary renders the KPI cards and the productive/inactive split.
func RenderSummary(d report.Dashboard, width int) string {
	card := func(label, value string) string {
		return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Tempo Produtivo", report.FormatMillis(d.Metrics.TotalProductiveMs)),
		card("Inatividade", report.FormatMillis(d.Metrics.TotalInactivityMs)),
		card("Arquivos Editados", fmt.Sprint(d.Metrics.DistinctFilesEdited)),
		card("Registros", fmt.Sprint(d.Metrics.TotalActions)),
	)

	barWidth := width - 2
	if barWidth < 20 {
		barWidth = 20
	}
	return cards + "\n" + renderSplit(d.Metrics, barWidth) + "\n" +
		fmt.Sprintf("%.1f%% produtivo nesta data", d.Metrics.ProductivePercentage)
}

func renderSplit(m report.Metrics, width int) string {
	if m.TotalProductiveMs+m.TotalInactivityMs == 0 {
		return dimStyle.Render(strings.Repeat("░", width))
	}
	filled := int(float64(width)*m.ProductivePercentage/100 + 0.5)
	if filled > width {
		filled = width
	}
	return productiveStyle.Render(strings.Repeat("█", filled)) +
		inactiveStyle.Render(strings.Repeat("█", width-filled))
}

// RenderPeriod describes the effective interval of d.
func RenderPeriod(iv report.Interval, loc *time.Location) string {
	return iv.Start.In(loc).Format(periodLayout) + " a " + iv.End.In(loc).Format(periodLayout)
}

// renderChart draws the edit-time series as horizontal bars.
func renderChart(s report.Series, width int) string {
	if s.Len() == 0 {
		return dimStyle.Render("Nenhum arquivo editado no período.")
	}

	labelWidth := 0
	var top float64
	for i, l := range s.Labels {
		if w := runewidth.StringWidth(l); w > labelWidth {
			labelWidth = w
		}
		if s.Values[i] > top {
			top = s.Values[i]
		}
	}
	if labelWidth > 30 {
		labelWidth = 30
	}
	barWidth := width - labelWidth - 14
	if barWidth < 10 {
		barWidth = 10
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(report.SeriesName) + "\n")
	for i, label := range s.Labels {
		// truncate and pad by display width, not rune count
		label = runewidth.FillRight(runewidth.Truncate(label, labelWidth, "…"), labelWidth)
		n := 0
		if top > 0 {
			n = int(float64(barWidth) * s.Values[i] / top)
		}
		if n == 0 && s.Values[i] > 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%s %s %s\n", label,
			chartStyle.Render(strings.Repeat("▇", n)),
			report.FormatSecondsValue(s.Values[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderActivities lists the projected log, one entry per line.
func renderActivities(acts []report.Activity, loc *time.Location) string {
	if len(acts) == 0 {
		return dimStyle.Render("Nenhuma atividade no período.")
	}
	var b strings.Builder
	for _, a := range acts {
		b.WriteString(report.FormatLogTime(a.At, loc))
		b.WriteString(" — ")
		b.WriteString(actionStyle.Render(a.Action))
		b.WriteString(" em ")
		b.WriteString(fileStyle.Render(a.FileName))
		if a.Duration != "" {
			b.WriteString(" (" + a.Duration + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
