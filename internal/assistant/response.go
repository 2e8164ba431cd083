package assistant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Column describes one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Row maps column keys to string, number or nil values.
type Row map[string]any

// Table is a titled result table.
type Table struct {
	Title   string   `json:"title"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ChartType is the visualization kind of a chart.
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartLine     ChartType = "line"
	ChartDoughnut ChartType = "doughnut"
)

// Dataset is one data series of a chart.
type Dataset struct {
	Label  string    `json:"label"`
	Data   []float64 `json:"data"`
	Colors []string  `json:"colors,omitempty"`
}

// Chart is a visualization-ready series set. Every dataset has one value per
// label.
type Chart struct {
	Title    string    `json:"title"`
	Type     ChartType `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Response is the uniform answer of every report.
type Response struct {
	Summary     string   `json:"summary"`
	Tables      []Table  `json:"tables"`
	Charts      []Chart  `json:"charts"`
	Suggestions []string `json:"suggestions"`
	Intent      Intent   `json:"intent"`
	Source      Source   `json:"source"`
}

func col(key, label string) Column {
	return Column{Key: key, Label: label}
}

func newTable(title string, cols ...Column) *Table {
	return &Table{Title: title, Columns: cols, Rows: []Row{}}
}

// add appends a row, dropping keys that are not columns of the table.
func (t *Table) add(r Row) {
	for k := range r {
		if !t.hasColumn(k) {
			delete(r, k)
		}
	}
	t.Rows = append(t.Rows, r)
}

func (t *Table) hasColumn(key string) bool {
	for _, c := range t.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// newChart builds a chart, padding or truncating every dataset to the number
// of labels.
func newChart(title string, typ ChartType, labels []string, datasets ...Dataset) Chart {
	if labels == nil {
		labels = []string{}
	}
	for i := range datasets {
		data := make([]float64, len(labels))
		copy(data, datasets[i].Data)
		datasets[i].Data = data
		if datasets[i].Colors != nil && len(datasets[i].Colors) > len(labels) {
			datasets[i].Colors = datasets[i].Colors[:len(labels)]
		}
	}
	if datasets == nil {
		datasets = []Dataset{}
	}
	return Chart{Title: title, Type: typ, Labels: labels, Datasets: datasets}
}

// series accumulates values per label, keeping first-seen label order.
type series struct {
	labels []string
	index  map[string]int
	values []float64
}

func newSeries(labels ...string) *series {
	s := &series{index: make(map[string]int)}
	for _, l := range labels {
		s.ensure(l)
	}
	return s
}

func (s *series) ensure(label string) int {
	if i, ok := s.index[label]; ok {
		return i
	}
	s.index[label] = len(s.labels)
	s.labels = append(s.labels, label)
	s.values = append(s.values, 0)
	return len(s.labels) - 1
}

func (s *series) add(label string, v float64) {
	s.values[s.ensure(label)] += v
}

// addExisting accumulates only into labels created up front.
func (s *series) addExisting(label string, v float64) {
	if i, ok := s.index[label]; ok {
		s.values[i] += v
	}
}

func (s *series) get(label string) float64 {
	if i, ok := s.index[label]; ok {
		return s.values[i]
	}
	return 0
}

func (s *series) len() int {
	return len(s.labels)
}

func (s *series) chart(title string, typ ChartType, datasetLabel string) Chart {
	return newChart(title, typ, append([]string(nil), s.labels...),
		Dataset{Label: datasetLabel, Data: append([]float64(nil), s.values...)})
}

// ranking holds one chart bar per entity key, in first-seen order. Labels
// stay unique: a display name already used by another entity gets an
// ordinal, "Acme (2)".
type ranking struct {
	labels []string
	values []float64
	index  map[string]int
	used   map[string]bool
}

func newRanking() *ranking {
	return &ranking{index: make(map[string]int), used: make(map[string]bool)}
}

func (r *ranking) add(key, label string, v float64) {
	i, ok := r.index[key]
	if !ok {
		base := label
		for n := 2; r.used[label]; n++ {
			label = fmt.Sprintf("%s (%d)", base, n)
		}
		r.used[label] = true
		i = len(r.labels)
		r.index[key] = i
		r.labels = append(r.labels, label)
		r.values = append(r.values, 0)
	}
	r.values[i] += v
}

func (r *ranking) len() int {
	return len(r.labels)
}

func (r *ranking) chart(title string, typ ChartType, datasetLabel string) Chart {
	return newChart(title, typ, append([]string(nil), r.labels...),
		Dataset{Label: datasetLabel, Data: append([]float64(nil), r.values...)})
}

func respond(summary string, tables []*Table, charts []Chart, suggestions ...string) Response {
	out := Response{
		Summary:     summary,
		Tables:      make([]Table, 0, len(tables)),
		Charts:      charts,
		Suggestions: suggestions,
	}
	for _, t := range tables {
		out.Tables = append(out.Tables, *t)
	}
	if out.Charts == nil {
		out.Charts = []Chart{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out
}

// guidance answers a prompt that is missing information the report needs.
func guidance(summary string, suggestions ...string) Response {
	return respond(summary, nil, nil, suggestions...)
}

func tables(ts ...*Table) []*Table { return ts }

func charts(cs ...Chart) []Chart { return cs }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round2(part * 100 / total)
}

func date(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return date(*t)
}

func yesNo(b bool) string {
	if b {
		return "Evet"
	}
	return "Hayir"
}

// daysBetween returns whole days from a to b, negative when b is before a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

// money formats an amount with a thousands separator for summaries,
// e.g. 12500.5 becomes "12.500,50".
func money(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := cents % 100
	b.WriteByte(',')
	b.WriteByte(byte('0' + frac/10))
	b.WriteByte(byte('0' + frac%10))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
