package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// mark classifies one summary line; it picks the glyph and the color.
type mark int

const (
	markInfo mark = iota
	markDone
	markAttention
	markFailed
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func (m mark) glyph() string {
	switch m {
	case markDone:
		return "✓"
	case markAttention:
		return "!"
	case markFailed:
		return "✗"
	default:
		return "·"
	}
}

func (m mark) color() string {
	switch m {
	case markDone:
		return ansiGreen
	case markAttention:
		return ansiYellow
	case markFailed:
		return ansiRed
	default:
		return ""
	}
}

// failureMark: zero failures is a clean result, any is worth a look.
func failureMark(failed int) mark {
	if failed > 0 {
		return markAttention
	}
	return markDone
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

// statusLine renders a single "<glyph> label value" line, the label padded
// to width.
func statusLine(m mark, label string, width int, value string, colorize bool) string {
	pad := width - text.RuneWidthWithoutEscSequences(label)
	if pad < 0 {
		pad = 0
	}
	line := "  " + m.glyph() + " " + label + strings.Repeat(" ", pad)
	if value != "" {
		line += "  " + value
	}
	return paint(line, m.color(), colorize)
}

type summaryLine struct {
	mark  mark
	label string
	value string
}

// summary is the text form of one job report: a titled block of counts,
// optionally followed by detail tables.
type summary struct {
	title  string
	lines  []summaryLine
	blocks []string
}

func newSummary(title string) *summary {
	return &summary{title: strings.TrimSpace(title)}
}

func (s *summary) add(m mark, label, value string) *summary {
	s.lines = append(s.lines, summaryLine{mark: m, label: label, value: value})
	return s
}

func (s *summary) count(label string, n int) *summary {
	return s.add(markInfo, label, strconv.Itoa(n))
}

// done counts completed work; nothing done stays neutral.
func (s *summary) done(label string, n int) *summary {
	m := markInfo
	if n > 0 {
		m = markDone
	}
	return s.add(m, label, strconv.Itoa(n))
}

func (s *summary) failed(n int) *summary {
	return s.add(failureMark(n), "Failed", strconv.Itoa(n))
}

// names lists names, or "none"; a non-empty list is flagged when flag is set.
func (s *summary) names(label string, names []string, flag bool) *summary {
	m := markInfo
	if flag && len(names) > 0 {
		m = markAttention
	}
	return s.add(m, label, joinOrNone(names))
}

func (s *summary) table(t *reportTable) *summary {
	if out := t.render(); out != "" {
		s.blocks = append(s.blocks, out)
	}
	return s
}

func (s *summary) render(colorize bool) []string {
	out := make([]string, 0, len(s.lines)+len(s.blocks)+2)
	if s.title != "" {
		rule := strings.Repeat("─", text.RuneWidthWithoutEscSequences(s.title))
		out = append(out, paint(s.title, ansiCyan, colorize), paint(rule, ansiCyan, colorize))
	}
	width := 0
	for _, l := range s.lines {
		if w := text.RuneWidthWithoutEscSequences(l.label); w > width {
			width = w
		}
	}
	for _, l := range s.lines {
		out = append(out, statusLine(l.mark, l.label, width, l.value, colorize))
	}
	return append(out, s.blocks...)
}

type column struct {
	title   string
	numeric bool
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

// reportTable renders detail rows. Numeric columns are right aligned and,
// with a totals label, summed into a footer.
type reportTable struct {
	cols   []column
	rows   []table.Row
	totals string
}

func newReportTable(cols ...column) *reportTable {
	return &reportTable{cols: cols}
}

// add appends one row; missing cells render empty and extra cells are dropped.
func (t *reportTable) add(cells ...interface{}) {
	row := make(table.Row, len(t.cols))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	t.rows = append(t.rows, row)
}

func (t *reportTable) withTotals(label string) *reportTable {
	t.totals = label
	return t
}

func (t *reportTable) render() string {
	if len(t.cols) == 0 || len(t.rows) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(t.cols))
	configs := make([]table.ColumnConfig, 0, len(t.cols))
	for i, c := range t.cols {
		header[i] = c.title
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft, AlignFooter: text.AlignLeft}
		if c.numeric {
			cfg.Align, cfg.AlignHeader, cfg.AlignFooter = text.AlignRight, text.AlignRight, text.AlignRight
		}
		configs = append(configs, cfg)
	}
	tw.AppendHeader(header)
	tw.AppendRows(t.rows)
	tw.SetColumnConfigs(configs)

	if t.totals != "" {
		footer := make(table.Row, len(t.cols))
		footer[0] = t.totals
		for i, c := range t.cols {
			if i == 0 || !c.numeric {
				if i > 0 {
					footer[i] = ""
				}
				continue
			}
			var sum int64
			for _, row := range t.rows {
				sum += asInt64(row[i])
			}
			footer[i] = sum
		}
		tw.AppendFooter(footer)
	}
	return tw.Render()
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case string:
		parsed, _ := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return parsed
	default:
		return 0
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
