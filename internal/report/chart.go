package report

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"fintrack/internal/money"
)

const (
	chartWidth  = 800
	chartHeight = 400
	chartMargin = 60
)

var chartTmpl = template.Must(template.New("chart").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
  <rect width="100%" height="100%" fill="#ffffff"/>
  <text x="{{.Mid}}" y="30" font-family="sans-serif" font-size="18" text-anchor="middle">{{xml .Title}}</text>
  <line x1="{{.Left}}" y1="{{.Bottom}}" x2="{{.Right}}" y2="{{.Bottom}}" stroke="#333"/>
  <line x1="{{.Left}}" y1="{{.Top}}" x2="{{.Left}}" y2="{{.Bottom}}" stroke="#333"/>
  <text x="{{.Left}}" y="{{.Top}}" dx="-8" font-family="sans-serif" font-size="11" text-anchor="end">{{.Max}}</text>
  <text x="{{.Left}}" y="{{.Bottom}}" dx="-8" font-family="sans-serif" font-size="11" text-anchor="end">0.00</text>
  <polyline fill="none" stroke="#1f77b4" stroke-width="2" points="{{.Points}}"/>
{{- range .Marks}}
  <circle cx="{{.X}}" cy="{{.Y}}" r="3" fill="#1f77b4"><title>{{.Label}}: {{.Amount}}</title></circle>
  {{- if .ShowLabel}}
  <text x="{{.X}}" y="{{$.LabelY}}" font-family="sans-serif" font-size="10" text-anchor="middle">{{.Label}}</text>
  {{- end}}
{{- end}}
</svg>
`))

type chartMark struct {
	X, Y      string
	Label     string
	Amount    string
	ShowLabel bool
}

type chartData struct {
	Title                    string
	Width, Height            int
	Mid                      int
	Left, Right, Top, Bottom int
	LabelY                   int
	Max                      string
	Points                   string
	Marks                    []chartMark
}

// RenderChart writes an SVG line chart of amounts per day.
func RenderChart(w io.Writer, title string, dates []time.Time, amounts []decimal.Decimal) error {
	if len(dates) != len(amounts) {
		return fmt.Errorf("series length mismatch: %d dates, %d amounts", len(dates), len(amounts))
	}
	if len(dates) == 0 {
		return errors.New("nothing to chart")
	}

	data := chartData{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Mid:    chartWidth / 2,
		Left:   chartMargin,
		Right:  chartWidth - chartMargin/2,
		Top:    chartMargin,
		Bottom: chartHeight - chartMargin,
		LabelY: chartHeight - chartMargin + 18,
	}

	maxAmount := money.Zero
	for _, a := range amounts {
		if a.GreaterThan(maxAmount) {
			maxAmount = a
		}
	}
	data.Max = money.Format(maxAmount)

	plotW := decimal.NewFromInt(int64(data.Right - data.Left))
	plotH := decimal.NewFromInt(int64(data.Bottom - data.Top))
	steps := decimal.NewFromInt(int64(max(len(dates)-1, 1)))
	labelEvery := max(len(dates)/10, 1)

	points := make([]string, 0, len(dates))
	for i, day := range dates {
		x := decimal.NewFromInt(int64(data.Left)).Add(plotW.Mul(decimal.NewFromInt(int64(i))).Div(steps))
		if len(dates) == 1 {
			x = decimal.NewFromInt(int64(data.Left)).Add(plotW.Div(decimal.NewFromInt(2)))
		}
		y := decimal.NewFromInt(int64(data.Bottom))
		if maxAmount.IsPositive() {
			y = y.Sub(plotH.Mul(amounts[i]).Div(maxAmount))
		}
		xs, ys := x.StringFixed(1), y.StringFixed(1)
		points = append(points, xs+","+ys)
		data.Marks = append(data.Marks, chartMark{
			X:         xs,
			Y:         ys,
			Label:     day.Format("Jan 02"),
			Amount:    money.Format(amounts[i]),
			ShowLabel: i%labelEvery == 0 || i == len(dates)-1,
		})
	}
	data.Points = strings.Join(points, " ")

	return chartTmpl.Execute(w, data)
}

// ChartFileName names the chart for a user and window length, e.g.
// "expenses_alice_7d.svg".
func ChartFileName(username string, days int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(username)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	slug := b.String()
	if slug == "" {
		slug = "user"
	}
	return fmt.Sprintf("expenses_%s_%dd.svg", slug, days)
}

// WriteChartFile renders the chart into dir and returns the file path.
func WriteChartFile(dir, username string, dates []time.Time, amounts []decimal.Decimal) (string, error) {
	title := fmt.Sprintf("Expenses of %s, last %d days (total %s)", username, len(dates), money.Format(Total(amounts)))

	var buf bytes.Buffer
	if err := RenderChart(&buf, title, dates, amounts); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart directory: %w", err)
	}
	path := filepath.Join(dir, ChartFileName(username, len(dates)))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
