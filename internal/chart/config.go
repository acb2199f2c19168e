// Package chart turns normalized reports into renderer-agnostic chart
// configurations (highcharts options or table rows).
package chart

import (
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/report"
)

// yAxisTitle is the fixed label of the count axis.
const yAxisTitle = "Published Stories"

// totalColumn is the label of the summed final table column.
const totalColumn = "Total Stories"

// Builder assembles one chart configuration from report data.
type Builder struct {
	ID        string
	Type      string
	Title     string
	Subtitle  string
	SortOrder string

	parentField string
	flat        map[string]int
	stacked     map[string]map[string]int

	childField  string
	childTotals map[string]int

	translations Translations
}

// NewBuilder creates a chart builder for the given chart id and type.
func NewBuilder(id, chartType string) *Builder {
	return &Builder{
		ID:        id,
		Type:      chartType,
		SortOrder: "desc",
	}
}

// SetSingleSource sets one flat data source keyed by the given field.
func (b *Builder) SetSingleSource(field string, data map[string]int) {
	b.parentField = field
	b.flat = data
	b.stacked = nil
}

// SetMultiSource sets a stacked parent source plus the child dimension with
// its per-key totals.
func (b *Builder) SetMultiSource(parentField string, data map[string]map[string]int, childField string, childTotals map[string]int) {
	b.parentField = parentField
	b.stacked = data
	b.flat = nil
	b.childField = childField
	b.childTotals = childTotals
}

// SetTranslations provides the field display titles and key name lookups.
func (b *Builder) SetTranslations(t Translations) {
	b.translations = t
}

func (b *Builder) multiSource() bool {
	return b.stacked != nil
}

// sortedKeys orders the parent categories per the configured sort order.
func (b *Builder) sortedKeys() []string {
	if b.multiSource() {
		return report.SortKeysMulti(b.stacked, b.SortOrder)
	}
	return report.SortKeys(b.flat, b.SortOrder)
}

// seriesKeys orders the child series by their totals per the sort order.
func (b *Builder) seriesKeys() []string {
	return report.SortKeys(b.childTotals, b.SortOrder)
}

type series struct {
	name string
	data []int
}

// seriesData computes the plotted series. Single-source charts have one
// series named after the count axis; stacked charts have one series per
// child key in total order.
func (b *Builder) seriesData() []series {
	keys := b.sortedKeys()

	if !b.multiSource() {
		data := make([]int, len(keys))
		for i, key := range keys {
			data[i] = b.flat[key]
		}
		return []series{{name: yAxisTitle, data: data}}
	}

	out := make([]series, 0, len(b.childTotals))
	for _, childKey := range b.seriesKeys() {
		data := make([]int, len(keys))
		for i, key := range keys {
			data[i] = b.stacked[key][childKey]
		}
		out = append(out, series{
			name: b.translations.Name(b.childField, childKey),
			data: data,
		})
	}
	return out
}

func (b *Builder) renderSeries(all []series) []map[string]any {
	rendered := make([]map[string]any, len(all))
	for i, s := range all {
		rendered[i] = map[string]any{"name": s.name, "data": s.data}
	}
	return rendered
}

func (b *Builder) xAxis() map[string]any {
	keys := b.sortedKeys()
	categories := make([]string, len(keys))
	for i, key := range keys {
		categories[i] = b.translations.Name(b.parentField, key)
	}
	return map[string]any{
		"title":      map[string]any{"text": b.translations.Title(b.parentField)},
		"categories": categories,
	}
}

func (b *Builder) yAxis() map[string]any {
	return map[string]any{
		"title":         map[string]any{"text": yAxisTitle},
		"stackLabels":   map[string]any{"enabled": b.multiSource()},
		"allowDecimals": false,
	}
}

func (b *Builder) legend() map[string]any {
	if !b.multiSource() {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"title":   map[string]any{"text": b.translations.Title(b.childField)},
	}
}

func (b *Builder) tooltip() map[string]any {
	if !b.multiSource() {
		return map[string]any{
			"headerFormat": "{point.x}: {point.y}",
			"pointFormat":  "",
		}
	}
	return map[string]any{
		"headerFormat": "{series.name}/{point.x}: {point.y}",
		"pointFormat":  "",
	}
}

func (b *Builder) plotOptions() map[string]any {
	if !b.multiSource() {
		perType := map[string]any{
			"colorByPoint": true,
			"dataLabels":   map[string]any{"enabled": true},
		}
		return map[string]any{"bar": perType, "column": perType}
	}
	perType := map[string]any{
		"stacking":     "normal",
		"colorByPoint": false,
	}
	return map[string]any{"bar": perType, "column": perType}
}

// zoomType is the zoom axis: bar charts plot categories on the Y axis, so
// they zoom on y; everything else zooms on x.
func (b *Builder) zoomType() string {
	if b.Type == "bar" {
		return "y"
	}
	return "x"
}

// Generate builds the chart or table configuration.
func (b *Builder) Generate() (map[string]any, error) {
	if b.parentField == "" || (b.flat == nil && b.stacked == nil) {
		return nil, domain.BadRequest("chart config requires series data")
	}

	if b.Type == "table" {
		return b.tableConfig(), nil
	}
	return b.highchartsConfig(), nil
}

func (b *Builder) highchartsConfig() map[string]any {
	return map[string]any{
		"id":   b.ID,
		"type": b.Type,
		"chart": map[string]any{
			"type":     b.Type,
			"zoomType": b.zoomType(),
		},
		"credits":     map[string]any{"enabled": false},
		"title":       map[string]any{"text": b.Title},
		"subtitle":    map[string]any{"text": b.Subtitle},
		"xAxis":       b.xAxis(),
		"yAxis":       b.yAxis(),
		"legend":      b.legend(),
		"tooltip":     b.tooltip(),
		"plotOptions": b.plotOptions(),
		"series":      b.renderSeries(b.seriesData()),
	}
}

// tableConfig renders the same data as headers plus rows. Single-source
// tables have one count column; stacked tables add one column per series
// and a final summed total column.
func (b *Builder) tableConfig() map[string]any {
	keys := b.sortedKeys()
	allSeries := b.seriesData()

	headers := []string{b.translations.Title(b.parentField)}
	rows := make([][]any, len(keys))
	for i, key := range keys {
		rows[i] = []any{b.translations.Name(b.parentField, key)}
	}

	if !b.multiSource() {
		headers = append(headers, yAxisTitle)
		for i, key := range keys {
			rows[i] = append(rows[i], b.flat[key])
		}
	} else {
		for _, s := range allSeries {
			headers = append(headers, s.name)
		}
		headers = append(headers, totalColumn)

		for i := range keys {
			total := 0
			for _, s := range allSeries {
				rows[i] = append(rows[i], s.data[i])
				total += s.data[i]
			}
			rows[i] = append(rows[i], total)
		}
	}

	return map[string]any{
		"id":       b.ID,
		"type":     "table",
		"chart":    map[string]any{"type": "column"},
		"xAxis":    b.xAxis(),
		"series":   b.renderSeries(allSeries),
		"headers":  headers,
		"rows":     rows,
		"title":    b.Title,
		"subtitle": b.Subtitle,
	}
}
