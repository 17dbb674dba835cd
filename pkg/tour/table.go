package tour

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// UnparsedPrefix tags a persisted table that is raw container markup.
const UnparsedPrefix = "[unparsed table]\n"

// Row is one data row of the results table.
type Row struct {
	Date  string
	Times string
	// Cells are the row's texts in header order, reserve column excluded.
	Cells []string
	// Index is the row's position among the table's <tr> elements; the
	// header is 0.
	Index int
}

// Table is the parsed results table.
type Table struct {
	// Header holds the column titles in source order, reserve column excluded.
	Header []string
	Rows   []Row
	// ReserveCol is the source column of the reserve control, or -1.
	ReserveCol int
}

type columns struct {
	date, time, reserve int
}

// resolveColumns finds the Date, Time and Reserve columns by substring match
// on the header text. Date and Time are required.
func resolveColumns(header []string) (columns, error) {
	cols := columns{date: -1, time: -1, reserve: -1}
	for i, h := range header {
		h = strings.ToLower(h)
		switch {
		case cols.date < 0 && strings.Contains(h, "date"):
			cols.date = i
		case cols.time < 0 && strings.Contains(h, "time"):
			cols.time = i
		case cols.reserve < 0 && strings.Contains(h, "reserve"):
			cols.reserve = i
		}
	}

	if cols.date < 0 || cols.time < 0 {
		return cols, fmt.Errorf("%w: header %q lacks a Date or Time column", ErrTableParse, header)
	}
	return cols, nil
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.Join(strings.Fields(td.Text()), " "))
	})
	return cells
}

func without(cells []string, col int) []string {
	out := make([]string, 0, len(cells))
	for i, c := range cells {
		if i != col {
			out = append(out, c)
		}
	}
	return out
}

// ParseTable parses the first <table> in html. The first row is the header.
// A data row whose cell count differs from the header is an error.
func ParseTable(html string) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableParse, err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("%w: no table element", ErrTableParse)
	}
	trs := tbl.Find("tr")
	if trs.Length() == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrTableParse)
	}

	header := cellTexts(trs.Eq(0))
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	t := &Table{
		Header:     without(header, cols.reserve),
		ReserveCol: cols.reserve,
	}
	for i := 1; i < trs.Length(); i++ {
		cells := cellTexts(trs.Eq(i))
		if len(cells) == 0 {
			continue
		}
		if len(cells) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrTableParse, i, len(cells), len(header))
		}
		t.Rows = append(t.Rows, Row{
			Date:  cells[cols.date],
			Times: cells[cols.time],
			Cells: without(cells, cols.reserve),
			Index: i,
		})
	}
	return t, nil
}

// Details labels each cell of r with its column title.
func (t *Table) Details(r Row) []string {
	details := make([]string, 0, len(r.Cells))
	for i, c := range r.Cells {
		if i < len(t.Header) {
			details = append(details, t.Header[i]+": "+c)
		}
	}
	return details
}

// RenderTable renders t as fixed-width text. Rows and columns keep their
// source order.
func RenderTable(t *Table) string {
	w := table.NewWriter()

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	w.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(r.Cells))
		for i, c := range r.Cells {
			row[i] = c
		}
		w.AppendRow(row)
	}

	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	w.SetStyle(style)
	return w.Render()
}

// Unparsed wraps raw container markup for persistence.
func Unparsed(html string) string {
	return UnparsedPrefix + html
}
