package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// activityChart renders the diel activity curves of the top-ranked species
// as an HTML line chart. Debugging-only endpoint (no auth) to eyeball the
// KDE output without a frontend.
func (s *Server) activityChart(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.buildReport(r)
	if err != nil {
		s.writeJSONError(w, status, err.Error())
		return
	}
	if len(report.Activity) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no activity patterns for this filter")
		return
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Diel Activity", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Diel Activity Patterns", Subtitle: fmt.Sprintf("species=%d", len(report.Activity))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour of day", Min: 0, Max: 24}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Density"}),
	)

	// All series share the first curve's hour grid: 200 samples for KDE
	// curves, 24 bins for the histogram fallback.
	x := make([]string, 0, len(report.Activity[0].Points))
	for _, p := range report.Activity[0].Points {
		x = append(x, fmt.Sprintf("%.1f", p.Hour))
	}
	line.SetXAxis(x)

	for _, series := range report.Activity {
		data := make([]opts.LineData, 0, len(series.Points))
		for _, p := range series.Points {
			data = append(data, opts.LineData{Value: p.Value})
		}
		name := fmt.Sprintf("%s (n=%d)", series.Species, series.EventCount)
		line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	renderChart(w, s, line)
}

// accumulationChart renders the observed accumulation curve with the fitted
// smoothing overlaid when available.
func (s *Server) accumulationChart(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.buildReport(r)
	if err != nil {
		s.writeJSONError(w, status, err.Error())
		return
	}
	if len(report.Accumulation) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no accumulation data for this filter")
		return
	}

	seriesName := "observed"
	if report.AccumulationSmoothed {
		seriesName = "fitted"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Species Accumulation", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Species Accumulation", Subtitle: fmt.Sprintf("points=%d series=%s", len(report.Accumulation), seriesName)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Survey day"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cumulative species"}),
	)

	x := make([]string, 0, len(report.Accumulation))
	data := make([]opts.LineData, 0, len(report.Accumulation))
	for _, p := range report.Accumulation {
		x = append(x, fmt.Sprintf("%.1f", p.DayIndex))
		data = append(data, opts.LineData{Value: p.Richness})
	}
	line.SetXAxis(x)
	line.AddSeries(seriesName, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(report.AccumulationSmoothed)}))

	renderChart(w, s, line)
}

// occupancyChart renders naive occupancy per species as a bar chart.
func (s *Server) occupancyChart(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.buildReport(r)
	if err != nil {
		s.writeJSONError(w, status, err.Error())
		return
	}
	if len(report.Occupancy) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no occupancy data for this filter")
		return
	}

	x := make([]string, 0, len(report.Occupancy))
	y := make([]opts.BarData, 0, len(report.Occupancy))
	for _, o := range report.Occupancy {
		x = append(x, o.Species)
		if o.NaiveOccupancy != nil {
			y = append(y, opts.BarData{Value: *o.NaiveOccupancy * 100})
		} else {
			y = append(y, opts.BarData{Value: 0})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Naive Occupancy", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Naive Occupancy", Subtitle: fmt.Sprintf("species=%d", len(x))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "% of sites occupied", Max: 100}),
	)
	bar.SetXAxis(x).
		AddSeries("occupancy", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	renderChart(w, s, bar)
}

type renderable interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, s *Server, c renderable) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

const chartsDashboardHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Fauna Report Debug Charts</title>
  <style>
    body { background: #111; color: #eee; font-family: sans-serif; margin: 1rem; }
    iframe { border: 1px solid #333; width: 100%%; height: 640px; margin-bottom: 1rem; }
  </style>
</head>
<body>
  <h1>Fauna Report Debug Charts</h1>
  <iframe src="/debug/charts/activity%[1]s"></iframe>
  <iframe src="/debug/charts/accumulation%[1]s"></iframe>
  <iframe src="/debug/charts/occupancy%[1]s"></iframe>
</body>
</html>
`

// chartsDashboard renders a simple dashboard with iframes to the debug charts.
func (s *Server) chartsDashboard(w http.ResponseWriter, r *http.Request) {
	qs := ""
	if r.URL.RawQuery != "" {
		qs = "?" + r.URL.RawQuery
	}
	doc := fmt.Sprintf(chartsDashboardHTML, qs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}
