package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/pagination"
	"github.com/chimerakang/trackpro-go/payment"
)

// palette holds the styles of one output stream. Styles come from a renderer
// bound to that stream, so pipes and buffers get plain text.
type palette struct {
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	current lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	return &palette{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("240")),
		current: r.NewStyle().Bold(true).Reverse(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

const columnGap = "  "

// table renders rows under headers with every column padded to its widest cell.
func (ui *palette) table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	line := func(cells []string, style func(int, string) string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			parts[i] = style(i, cell) + pad
		}
		return strings.TrimRight(strings.Join(parts, columnGap), " ")
	}

	fmt.Fprintln(w, line(headers, func(_ int, s string) string { return ui.header.Render(s) }))
	for _, row := range rows {
		fmt.Fprintln(w, line(row, func(_ int, s string) string { return s }))
	}
}

// fields renders label/value pairs, one per line, with aligned values.
func (ui *palette) fields(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s%s %s\n", ui.label.Render(p[0]+":"), strings.Repeat(" ", width-lipgloss.Width(p[0])), p[1])
	}
}

// pageBar renders pagination controls such as "‹ 1 … 4 [5] 6 … 10 ›".
func (ui *palette) pageBar(b pagination.Bar) string {
	if b.PageCount <= 1 {
		return ""
	}
	var parts []string
	if b.HasPrevious {
		parts = append(parts, "‹")
	}
	for _, e := range b.Entries() {
		switch {
		case e.Ellipsis:
			parts = append(parts, ui.muted.Render("…"))
		case e.Page == b.Current:
			parts = append(parts, ui.current.Render(fmt.Sprintf("[%d]", e.Page)))
		default:
			parts = append(parts, e.String())
		}
	}
	if b.HasNext {
		parts = append(parts, "›")
	}
	return strings.Join(parts, " ")
}

func (ui *palette) projectStatus(s trackpro.ProjectStatus) string {
	switch s {
	case trackpro.ProjectFinished:
		return ui.ok.Render(string(s))
	case trackpro.ProjectProgressing:
		return ui.warn.Render(string(s))
	default:
		return ui.muted.Render(string(s))
	}
}

func (ui *palette) paymentStatus(s payment.Status) string {
	switch s {
	case payment.StatusPaid:
		return ui.ok.Render(string(s))
	case payment.StatusProgress:
		return ui.warn.Render(string(s))
	default:
		return ui.err.Render(string(s))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
