// Package report renders an analysis as the Basic Info, Potential Paths and
// Paths Summary sections.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/analyzer"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
)

// Name and Version appear in the banners.
const (
	Name    = "xdebug-race-inspector"
	Version = "1.0"
)

// PathSeparator chains locations in the summary view.
const PathSeparator = "  ->"

// Reporter writes reports to a writer.
type Reporter struct {
	w      io.Writer
	styles Styles
	color  bool
}

// New creates a Reporter writing to w with the given color mode.
func New(w io.Writer, mode ColorMode) *Reporter {
	color := useColor(w, mode)
	return &Reporter{w: w, styles: NewStyles(newRenderer(w, color)), color: color}
}

func (r *Reporter) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Render writes the full report for a. It fails if a call location cannot
// be parsed; nothing is written in that case.
func (r *Reporter) Render(a *analyzer.Analysis) error {
	paths, err := r.renderPaths(a)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(r.w)
	fmt.Fprintln(bw, r.paint(r.styles.Banner, fmt.Sprintf("### %s v%s ###", Name, Version)))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, r.paint(r.styles.Section, "[*] Basic Info"))
	fmt.Fprintln(bw, "Table(s) Detected")
	for i, t := range a.Tables {
		fmt.Fprintf(bw, "(%d). %s\n", i+1, r.paint(r.styles.Table, t))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, r.paint(r.styles.Section, "[*] Potential Path(s) detected"))
	for _, t := range a.Tables {
		r.tableHeader(bw, t)
		for i, p := range paths[t] {
			r.pathHeader(bw, i)
			for _, c := range p.calls {
				fmt.Fprintf(bw, "  - %s\n", c)
			}
			fmt.Fprintln(bw)
		}
	}

	fmt.Fprintln(bw, r.paint(r.styles.Section, "[*] Path(s) Summary"))
	for _, t := range a.Tables {
		r.tableHeader(bw, t)
		for i, p := range paths[t] {
			r.pathHeader(bw, i)
			if p.chain != "" {
				fmt.Fprintln(bw, p.chain)
			}
			fmt.Fprintln(bw)
		}
	}

	fmt.Fprintln(bw, r.paint(r.styles.Banner, fmt.Sprintf("### THANK YOU FOR USING - %s v%s ###", Name, Version)))
	return bw.Flush()
}

func (r *Reporter) tableHeader(w io.Writer, table string) {
	fmt.Fprintf(w, "Table(%s):\n", r.paint(r.styles.Table, table))
}

func (r *Reporter) pathHeader(w io.Writer, i int) {
	fmt.Fprintln(w, r.paint(r.styles.Path, fmt.Sprintf("- Path[%d]", i+1)))
}

// renderedPath is one path formatted for both views.
type renderedPath struct {
	calls []string
	chain string
}

// renderPaths formats every path up front so a malformed record aborts
// before any output.
func (r *Reporter) renderPaths(a *analyzer.Analysis) (map[string][]renderedPath, error) {
	out := make(map[string][]renderedPath, len(a.Tables))
	for _, t := range a.Tables {
		paths := make([]renderedPath, 0, len(a.Paths[t]))
		for _, p := range a.Paths[t] {
			rp, err := r.renderPath(p)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", t, err)
			}
			paths = append(paths, rp)
		}
		out[t] = paths
	}
	return out, nil
}

func (r *Reporter) renderPath(p model.Trace) (renderedPath, error) {
	var rp renderedPath
	for i, c := range p {
		loc, err := c.Location()
		if err != nil {
			return renderedPath{}, err
		}
		place := r.paint(r.styles.Location, loc.String())
		rp.calls = append(rp.calls, c.SQL()+" "+place)
		rp.chain += "  " + place
		if i != len(p)-1 {
			rp.chain += r.paint(r.styles.Arrow, PathSeparator)
		}
	}
	return rp, nil
}
