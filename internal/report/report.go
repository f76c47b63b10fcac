// Package report renders scan results as a terminal table or JSON.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/dss-scanner/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table" and "json".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Cell is one table value with its display emphasis.
type Cell struct {
	Text     string          `json:"text"`
	Category models.Category `json:"category"`
}

// Table is the display form of a scan result.
type Table struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// Columns returns "#", "Symbol", a label and reading column per timeframe, and "Signal".
func Columns(timeframes []models.Timeframe) []string {
	cols := []string{"#", "Symbol"}
	for _, tf := range timeframes {
		cols = append(cols, tf.Label, tf.Label+"_DSS")
	}
	return append(cols, "Signal")
}

// BuildTable lays out rows in their existing order with a 1-based position.
func BuildTable(result *models.ScanResult) Table {
	table := Table{Title: Title(result)}
	if result == nil {
		table.Columns = Columns(nil)
		return table
	}

	table.Columns = Columns(result.Timeframes)
	table.Rows = make([][]Cell, 0, len(result.Rows))
	for i, row := range result.Rows {
		cells := []Cell{
			{Text: strconv.Itoa(i + 1), Category: models.CategoryNone},
			{Text: row.Pair, Category: models.CategoryNone},
		}
		for _, tf := range result.Timeframes {
			label := row.Label(tf.Label)
			cells = append(cells,
				Cell{Text: label.DirectionText(), Category: models.CategoryForDirection(label.Direction)},
				Cell{Text: label.ReadingText(), Category: models.CategoryNone},
			)
		}
		cells = append(cells, Cell{Text: string(row.Signal), Category: models.CategoryForSignal(row.Signal)})
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// Title names the exchange and run.
func Title(result *models.ScanResult) string {
	if result == nil {
		return "DSS Bressert scan"
	}
	exchange := cases.Title(language.English).String(result.Exchange)
	title := "DSS Bressert scan"
	if exchange != "" {
		title += " | " + exchange
	}
	if !result.FinishedAt.IsZero() {
		title += " | " + result.FinishedAt.Format("2006-01-02 15:04 MST")
	}
	return title
}

// Renderer writes tables, optionally with ANSI colors.
type Renderer struct {
	color bool
}

// NewRenderer creates a renderer. color enables ANSI emphasis.
func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

// Render writes result in format.
func (r *Renderer) Render(w io.Writer, result *models.ScanResult, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return r.WriteTable(w, BuildTable(result))
}

// RenderError writes a failed run: the message followed by an empty table.
func (r *Renderer) RenderError(w io.Writer, err error, timeframes []models.Timeframe, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"error": err.Error(),
			"rows":  []models.SymbolRow{},
		})
	}
	if _, werr := fmt.Fprintf(w, "Error: %v\n\n", err); werr != nil {
		return werr
	}
	return r.WriteTable(w, Table{Title: Title(nil), Columns: Columns(timeframes)})
}

// WriteTable aligns the columns of table and writes it to w.
func (r *Renderer) WriteTable(w io.Writer, table Table) error {
	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell.Text))
			}
		}
	}

	var b strings.Builder
	if table.Title != "" {
		b.WriteString(table.Title)
		b.WriteString("\n\n")
	}

	header := make([]Cell, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = Cell{Text: c, Category: models.CategoryNone}
	}
	r.writeLine(&b, header, widths)

	rule := make([]Cell, len(widths))
	for i, wd := range widths {
		rule[i] = Cell{Text: strings.Repeat("-", wd), Category: models.CategoryNone}
	}
	r.writeLine(&b, rule, widths)

	for _, row := range table.Rows {
		r.writeLine(&b, row, widths)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeLine(b *strings.Builder, cells []Cell, widths []int) {
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			b.WriteString("  ")
		}
		padded := cell.Text + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell.Text))
		b.WriteString(r.paint(padded, cell.Category))
	}
	b.WriteString("\n")
}

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiGray  = "\x1b[90m"
)

func (r *Renderer) paint(text string, category models.Category) string {
	if !r.color {
		return text
	}
	switch category {
	case models.CategoryPositive:
		return ansiGreen + text + ansiReset
	case models.CategoryNegative:
		return ansiRed + text + ansiReset
	case models.CategoryNeutral:
		return ansiGray + text + ansiReset
	default:
		return text
	}
}

// Sink renders every published result to a writer.
type Sink struct {
	w        io.Writer
	renderer *Renderer
	format   Format
}

// NewSink creates a ResultSink writing to w.
func NewSink(w io.Writer, renderer *Renderer, format Format) *Sink {
	return &Sink{w: w, renderer: renderer, format: format}
}

// Publish implements services.ResultSink.
func (s *Sink) Publish(_ context.Context, result *models.ScanResult) error {
	return s.renderer.Render(s.w, result, s.format)
}
