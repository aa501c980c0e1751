package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ppiankov/vacdash/internal/model"
)

// Chart names served by the dashboard
const (
	NameGender      = "gender"
	NameVaccination = "vaccination"
	NameMap         = "map"
)

// Names lists the charts in page order
var Names = []string{NameGender, NameVaccination, NameMap}

// ErrUnknownChart is returned for a chart name outside Names
var ErrUnknownChart = errors.New("unknown chart")

// Format is an output image format
type Format string

// Supported formats
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

const (
	width  = 640
	height = 400

	maxMapLabels = 20
)

var placeholderColor = drawing.ColorFromHex("cccccc")

// ParseFormat maps a file extension (with or without the dot) to a Format
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", ext)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

// Render draws the named chart for d
func Render(name string, d model.Dashboard, f Format, w io.Writer) error {
	switch name {
	case NameGender:
		return GenderPie(d.GenderCounts, f, w)
	case NameVaccination:
		return VaccinationBars(d.VaccStatusByAgeGroup, f, w)
	case NameMap:
		return GeoScatter(d.GeoPoints, f, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// GenderPie draws the gender distribution as a pie
func GenderPie(counts []model.CategoryCount, f Format, w io.Writer) error {
	values := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		values = append(values, chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s (%d)", c.Category, c.Count),
		})
	}
	if len(values) == 0 {
		values = append(values, chart.Value{
			Value: 1,
			Label: "No data",
			Style: chart.Style{FillColor: placeholderColor},
		})
	}

	pie := chart.PieChart{
		Title:  "Gender Distribution",
		Width:  height,
		Height: height,
		Values: values,
	}
	if err := pie.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render gender chart: %w", err)
	}
	return nil
}

// VaccinationBars draws one bar per (age group, status) pair, coloured by status
func VaccinationBars(groups []model.GroupCount, f Format, w io.Writer) error {
	colors := make(map[string]drawing.Color)
	bars := make([]chart.Value, 0, len(groups))
	peak := 0
	for _, g := range groups {
		col, ok := colors[g.VaccStatus]
		if !ok {
			col = chart.GetDefaultColor(len(colors))
			colors[g.VaccStatus] = col
		}
		bars = append(bars, chart.Value{
			Value: float64(g.Count),
			Label: g.AgeGroup + " " + g.VaccStatus,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
		if g.Count > peak {
			peak = g.Count
		}
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Value: 0, Label: "No data"})
		peak = 1
	}

	barWidth := (width - 120) / (2 * len(bars))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 8 {
		barWidth = 8
	}

	bc := chart.BarChart{
		Title:      "Vaccination Status by Age Group",
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)},
		},
		Bars: bars,
	}
	if err := bc.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render vaccination chart: %w", err)
	}
	return nil
}

// GeoScatter plots located submissions by longitude and latitude, one colour per state
func GeoScatter(points []model.GeoPoint, f Format, w io.Writer) error {
	var (
		series []chart.Series
		notes  []chart.Value2
	)

	xr, yr := bounds(points)
	if len(points) == 0 {
		// axes still need a visible series
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{xr.Min, xr.Max},
			YValues: []float64{yr.Min, yr.Max},
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: chart.Disabled},
		})
	} else {
		byState := make(map[string]int)
		var order []string
		xs := make(map[string][]float64)
		ys := make(map[string][]float64)
		for _, p := range points {
			if _, ok := byState[p.StateName]; !ok {
				byState[p.StateName] = len(order)
				order = append(order, p.StateName)
			}
			xs[p.StateName] = append(xs[p.StateName], p.Longitude)
			ys[p.StateName] = append(ys[p.StateName], p.Latitude)
			if len(points) <= maxMapLabels {
				notes = append(notes, chart.Value2{XValue: p.Longitude, YValue: p.Latitude, Label: p.LGAName})
			}
		}
		for i, state := range order {
			series = append(series, chart.ContinuousSeries{
				Name:    state,
				XValues: xs[state],
				YValues: ys[state],
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    chart.GetDefaultColor(i),
				},
			})
		}
		if len(notes) > 0 {
			series = append(series, chart.AnnotationSeries{Annotations: notes})
		}
	}

	c := chart.Chart{
		Title:      "Geographic Coverage",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Longitude", Range: xr},
		YAxis:      chart.YAxis{Name: "Latitude", Range: yr},
		Series:     series,
	}
	if len(points) > 0 {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	if err := c.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render map chart: %w", err)
	}
	return nil
}

// bounds returns padded axis ranges around points; Nigeria when there are none
func bounds(points []model.GeoPoint) (*chart.ContinuousRange, *chart.ContinuousRange) {
	if len(points) == 0 {
		return &chart.ContinuousRange{Min: 2.5, Max: 15}, &chart.ContinuousRange{Min: 4, Max: 14}
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.Longitude), math.Max(maxX, p.Longitude)
		minY, maxY = math.Min(minY, p.Latitude), math.Max(maxY, p.Latitude)
	}
	padX := math.Max((maxX-minX)*0.1, 0.5)
	padY := math.Max((maxY-minY)*0.1, 0.5)
	return &chart.ContinuousRange{Min: minX - padX, Max: maxX + padX},
		&chart.ContinuousRange{Min: minY - padY, Max: maxY + padY}
}
