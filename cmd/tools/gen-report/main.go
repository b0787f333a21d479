// Command gen-report produces an offline biodiversity report: PNG plots of
// the accumulation curve, activity patterns and occupancy, plus the full
// report as JSON, for a single filter state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/humboldt-data/fauna.report/internal/analytics"
	"github.com/humboldt-data/fauna.report/internal/db"
	"github.com/humboldt-data/fauna.report/internal/units"
)

func main() {
	dbPath := flag.String("db", "fauna.db", "SQLite database path")
	outDir := flag.String("o", "report", "output directory")
	scopes := flag.String("scope", "", "comma-separated corporation scopes (empty = all)")
	events := flag.String("event", "", "comma-separated sampling events (empty = all)")
	interval := flag.Float64("interval", 30, "independence interval magnitude")
	intervalUnit := flag.String("interval-unit", units.Minutes, "independence interval unit")
	topSpecies := flag.Int("top", 10, "number of species in activity plots")
	smooth := flag.Bool("smooth", true, "fit the accumulation curve")
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	data, err := database.Dataset(context.Background())
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	fc := analytics.FilterContext{
		Scopes:            splitList(*scopes),
		Events:            splitList(*events),
		IntervalMagnitude: *interval,
		IntervalUnit:      *intervalUnit,
	}
	live := &analytics.LiveComputationSource{Data: data}
	report, err := analytics.BuildReport(live, nil, fc, analytics.ReportOptions{
		TopSpecies:          *topSpecies,
		Smooth:              *smooth,
		IncludeConsolidated: true,
	})
	if err != nil {
		log.Fatalf("failed to build report: %v", err)
	}
	for _, w := range report.Warnings {
		log.Printf("warning: %s", w.Error())
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	if err := writeJSON(report, filepath.Join(*outDir, "report.json")); err != nil {
		log.Fatalf("failed to write report JSON: %v", err)
	}
	if err := writeChartsHTML(report, filepath.Join(*outDir, "report.html")); err != nil {
		log.Fatalf("failed to write charts HTML: %v", err)
	}
	if err := plotAccumulation(report, filepath.Join(*outDir, "accumulation.png")); err != nil {
		log.Fatalf("failed to plot accumulation: %v", err)
	}
	if err := plotActivity(report, filepath.Join(*outDir, "activity.png")); err != nil {
		log.Fatalf("failed to plot activity: %v", err)
	}
	if err := plotOccupancy(report, filepath.Join(*outDir, "occupancy.png")); err != nil {
		log.Fatalf("failed to plot occupancy: %v", err)
	}

	log.Printf("✓ Report written to %s (run %s)", *outDir, report.RunID)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func writeJSON(report *analytics.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeChartsHTML renders an interactive echarts page with the activity
// curves and accumulation series side by side.
func writeChartsHTML(report *analytics.Report, path string) error {
	page := components.NewPage()
	page.PageTitle = "Fauna Report"

	if len(report.Accumulation) > 0 {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Species Accumulation"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)
		x := make([]string, 0, len(report.Accumulation))
		data := make([]opts.LineData, 0, len(report.Accumulation))
		for _, a := range report.Accumulation {
			x = append(x, fmt.Sprintf("%.1f", a.DayIndex))
			data = append(data, opts.LineData{Value: a.Richness})
		}
		line.SetXAxis(x)
		line.AddSeries("richness", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(report.AccumulationSmoothed)}))
		page.AddCharts(line)
	}

	if len(report.Activity) > 0 {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Diel Activity Patterns"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		)
		x := make([]string, 0, len(report.Activity[0].Points))
		for _, pt := range report.Activity[0].Points {
			x = append(x, fmt.Sprintf("%.1f", pt.Hour))
		}
		line.SetXAxis(x)
		for _, series := range report.Activity {
			data := make([]opts.LineData, 0, len(series.Points))
			for _, pt := range series.Points {
				data = append(data, opts.LineData{Value: pt.Value})
			}
			line.AddSeries(series.Species, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		}
		page.AddCharts(line)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func plotAccumulation(report *analytics.Report, path string) error {
	if len(report.Accumulation) == 0 {
		log.Print("no accumulation data; skipping plot")
		return nil
	}

	p := plot.New()
	p.Title.Text = "Species Accumulation"
	if report.AccumulationSmoothed {
		p.Title.Text = "Species Accumulation (fitted)"
	}
	p.X.Label.Text = "Survey day"
	p.Y.Label.Text = "Cumulative species"

	pts := make(plotter.XYs, 0, len(report.Accumulation))
	for _, a := range report.Accumulation {
		pts = append(pts, plotter.XY{X: a.DayIndex, Y: a.Richness})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1.5)
	p.Add(line)

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}

func plotActivity(report *analytics.Report, path string) error {
	if len(report.Activity) == 0 {
		log.Print("no activity patterns; skipping plot")
		return nil
	}

	p := plot.New()
	p.Title.Text = "Diel Activity Patterns"
	p.X.Label.Text = "Hour of day"
	p.Y.Label.Text = "Density"
	p.X.Min = 0
	p.X.Max = 24

	colors := generateColors(len(report.Activity))
	for i, series := range report.Activity {
		pts := make(plotter.XYs, 0, len(series.Points))
		for _, pt := range series.Points {
			pts = append(pts, plotter.XY{X: pt.Hour, Y: pt.Value})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", series.Species, series.EventCount), line)
	}
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

func plotOccupancy(report *analytics.Report, path string) error {
	if len(report.Occupancy) == 0 {
		log.Print("no occupancy data; skipping plot")
		return nil
	}

	values := make(plotter.Values, 0, len(report.Occupancy))
	labels := make([]string, 0, len(report.Occupancy))
	for _, o := range report.Occupancy {
		v := 0.0
		if o.NaiveOccupancy != nil {
			v = *o.NaiveOccupancy * 100
		}
		values = append(values, v)
		labels = append(labels, o.Species)
	}

	p := plot.New()
	p.Title.Text = "Naive Occupancy"
	p.Y.Label.Text = "% of sites occupied"
	p.Y.Max = 100

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 64, G: 128, B: 96, A: 255}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

// generateColors creates a palette of distinct colors for species lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
