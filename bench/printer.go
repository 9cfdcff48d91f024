package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json or csv)", s)
}

var summaryHeaders = []string{"expr", "min", "lq", "mean", "median", "uq", "max", "neval"}

// Printer renders summaries and comparisons.
type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Report is everything one run prints: its summaries in nanoseconds and,
// when a previous run was found, the comparison against it.
type Report struct {
	Title      string
	Summaries  []Summary
	Unit       Unit
	Comparison []Comparison
	Threshold  float64
}

// PrintReport renders r as a single document. JSON output nests the
// comparison instead of appending a second document.
func (p *Printer) PrintReport(r Report) error {
	if p.format == FormatJSON {
		scaled, resolved := Scale(r.Summaries, r.Unit)
		doc := report{Title: r.Title, Unit: string(resolved), Rows: jsonRows(scaled)}
		for _, c := range r.Comparison {
			doc.Comparison = append(doc.Comparison, comparisonRow{
				Label:      c.Label,
				New:        c.New,
				Status:     status(c, r.Threshold),
				Previous:   jsonFloat(c.Prev.Median),
				Current:    jsonFloat(c.Curr.Median),
				MedianDiff: jsonFloat(c.MedianDiff),
				MinDiff:    jsonFloat(c.MinDiff),
			})
		}
		return p.encode(doc)
	}

	if err := p.PrintSummaries(r.Title, r.Summaries, r.Unit); err != nil {
		return err
	}
	if len(r.Comparison) == 0 {
		return nil
	}
	fmt.Fprintln(p.w)
	return p.PrintComparison(r.Comparison, r.Threshold)
}

type report struct {
	Title      string          `json:"title,omitempty"`
	Unit       string          `json:"unit"`
	Rows       []summaryJSON   `json:"rows"`
	Comparison []comparisonRow `json:"comparison,omitempty"`
}

type summaryJSON struct {
	Label  string    `json:"label"`
	Min    jsonFloat `json:"min"`
	LQ     jsonFloat `json:"lq"`
	Mean   jsonFloat `json:"mean"`
	Median jsonFloat `json:"median"`
	UQ     jsonFloat `json:"uq"`
	Max    jsonFloat `json:"max"`
	NEval  int       `json:"neval"`
}

type comparisonRow struct {
	Label      string    `json:"label"`
	New        bool      `json:"new,omitempty"`
	Status     string    `json:"status"`
	Previous   jsonFloat `json:"previous_ns"`
	Current    jsonFloat `json:"current_ns"`
	MedianDiff jsonFloat `json:"median_diff"`
	MinDiff    jsonFloat `json:"min_diff"`
}

// jsonFloat encodes Inf and NaN as null; encoding/json rejects them.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func jsonRows(sums []Summary) []summaryJSON {
	rows := make([]summaryJSON, len(sums))
	for i, s := range sums {
		rows[i] = summaryJSON{
			Label:  s.Label,
			Min:    jsonFloat(s.Min),
			LQ:     jsonFloat(s.LQ),
			Mean:   jsonFloat(s.Mean),
			Median: jsonFloat(s.Median),
			UQ:     jsonFloat(s.UQ),
			Max:    jsonFloat(s.Max),
			NEval:  s.NEval,
		}
	}
	return rows
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSummaries renders nanosecond summaries in the requested unit.
func (p *Printer) PrintSummaries(title string, sums []Summary, unit Unit) error {
	scaled, resolved := Scale(sums, unit)

	switch p.format {
	case FormatJSON:
		return p.encode(report{Title: title, Unit: string(resolved), Rows: jsonRows(scaled)})
	case FormatCSV:
		cw := csv.NewWriter(p.w)
		if err := cw.Write(append(summaryHeaders, "unit")); err != nil {
			return err
		}
		for _, s := range scaled {
			row := append(csvRow(s), string(resolved))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	if title != "" {
		fmt.Fprintln(p.w, color.New(color.FgCyan, color.Bold).Sprint(title))
	}
	fmt.Fprintf(p.w, "Unit: %s\n", resolved)

	fastest, slowest := extremes(sums)
	rows := make([][]string, 0, len(scaled))
	for i, s := range scaled {
		row := summaryRow(s)
		if len(scaled) > 1 {
			switch i {
			case fastest:
				row[0] = color.GreenString(row[0])
			case slowest:
				row[0] = color.RedString(row[0])
			}
		}
		rows = append(rows, row)
	}

	table := newTable(p.w, summaryHeaders)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

// PrintComparison renders median deltas against a previous run. Deltas above
// threshold percent are flagged as regressions.
func (p *Printer) PrintComparison(comps []Comparison, threshold float64) error {
	switch p.format {
	case FormatJSON:
		return p.PrintReport(Report{Comparison: comps, Threshold: threshold})
	case FormatCSV:
		cw := csv.NewWriter(p.w)
		if err := cw.Write([]string{"expr", "previous_ns", "current_ns", "diff_pct", "status"}); err != nil {
			return err
		}
		for _, c := range comps {
			prev, diff := "", ""
			if !c.New {
				prev = fmtRaw(c.Prev.Median)
				diff = fmtRaw(c.MedianDiff)
			}
			if err := cw.Write([]string{c.Label, prev, fmtRaw(c.Curr.Median), diff, status(c, threshold)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	rows := make([][]string, 0, len(comps))
	for _, c := range comps {
		st := status(c, threshold)
		switch st {
		case "SLOWER":
			st = color.RedString(st)
		case "FASTER":
			st = color.GreenString(st)
		}
		prev, diff := "-", "-"
		if !c.New {
			prev = FmtNanos(c.Prev.Median)
			diff = fmt.Sprintf("%+.2f%%", c.MedianDiff)
		}
		rows = append(rows, []string{c.Label, prev, FmtNanos(c.Curr.Median), diff, st})
	}

	fmt.Fprintln(p.w, color.New(color.FgCyan, color.Bold).Sprint("Comparison with previous run (median)"))
	table := newTable(p.w, []string{"expr", "previous", "current", "diff", "status"})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func status(c Comparison, threshold float64) string {
	switch {
	case c.New:
		return "NEW"
	case c.MedianDiff > threshold:
		return "SLOWER"
	case c.MedianDiff < -threshold:
		return "FASTER"
	}
	return "PASS"
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetBorder(true)
	table.SetTablePadding(" ")
	return table
}

func summaryRow(s Summary) []string {
	return []string{
		s.Label,
		FmtValue(s.Min),
		FmtValue(s.LQ),
		FmtValue(s.Mean),
		FmtValue(s.Median),
		FmtValue(s.UQ),
		FmtValue(s.Max),
		strconv.Itoa(s.NEval),
	}
}

// csvRow keeps full precision; FmtValue is for people.
func csvRow(s Summary) []string {
	return []string{
		s.Label,
		fmtRaw(s.Min),
		fmtRaw(s.LQ),
		fmtRaw(s.Mean),
		fmtRaw(s.Median),
		fmtRaw(s.UQ),
		fmtRaw(s.Max),
		strconv.Itoa(s.NEval),
	}
}

func fmtRaw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// extremes returns the indexes of the fastest and slowest median.
func extremes(sums []Summary) (fastest, slowest int) {
	for i, s := range sums {
		if s.Median < sums[fastest].Median {
			fastest = i
		}
		if s.Median > sums[slowest].Median {
			slowest = i
		}
	}
	return fastest, slowest
}

// FmtValue prints v with precision that shrinks as its magnitude grows.
func FmtValue(v float64) string {
	switch abs := math.Abs(v); {
	case math.IsInf(v, 0):
		return "Inf"
	case math.IsNaN(v):
		return "NaN"
	case abs >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case abs >= 100:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case abs >= 1:
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FmtNanos prints a nanosecond quantity with an adaptive time unit.
func FmtNanos(ns float64) string {
	return FmtDur(time.Duration(ns))
}

func FmtDur(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
