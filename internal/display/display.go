// Package display formats query results for the terminal, as plain lines or JSON.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes query results to out.
type Printer struct {
	out  io.Writer
	json bool

	dir   *color.Color
	base  *color.Color
	yes   *color.Color
	no    *color.Color
	muted *color.Color
}

// NewPrinter creates a printer. Colors are used only when out is a terminal
// and JSON output is off.
func NewPrinter(out io.Writer, jsonOut bool) *Printer {
	p := &Printer{
		out:   out,
		json:  jsonOut,
		dir:   color.New(color.Faint),
		base:  color.New(color.FgCyan, color.Bold),
		yes:   color.New(color.FgGreen),
		no:    color.New(color.FgRed),
		muted: color.New(color.FgYellow),
	}
	styled := !jsonOut && IsTerminal(out)
	for _, c := range []*color.Color{p.dir, p.base, p.yes, p.no, p.muted} {
		if styled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports whether the printer emits colors.
func (p *Printer) Styled() bool {
	return !p.json && IsTerminal(p.out)
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) path(s string) string {
	dir, base := filepath.Split(s)
	return p.dir.Sprint(dir) + p.base.Sprint(base)
}

// Paths prints one path per line, or a JSON array.
func (p *Printer) Paths(paths []string) error {
	if p.json {
		if paths == nil {
			paths = []string{}
		}
		return p.writeJSON(paths)
	}
	for _, s := range paths {
		if _, err := fmt.Fprintln(p.out, p.path(s)); err != nil {
			return err
		}
	}
	return nil
}

// Bool prints true or false.
func (p *Printer) Bool(v bool) error {
	if p.json {
		return p.writeJSON(map[string]bool{"result": v})
	}
	c := p.no
	if v {
		c = p.yes
	}
	_, err := fmt.Fprintln(p.out, c.Sprint(v))
	return err
}

// Optional prints a path that may be absent. Plain output prints nothing when
// it is absent.
func (p *Printer) Optional(v string, ok bool) error {
	if p.json {
		return p.writeJSON(map[string]any{"found": ok, "path": v})
	}
	if !ok {
		return nil
	}
	_, err := fmt.Fprintln(p.out, p.path(v))
	return err
}

// Notice prints an informational line.
func (p *Printer) Notice(format string, args ...any) error {
	if p.json {
		return nil
	}
	_, err := fmt.Fprintln(p.out, p.muted.Sprintf(format, args...))
	return err
}

// JSON writes v as indented JSON regardless of the output mode.
func (p *Printer) JSON(v any) error {
	return p.writeJSON(v)
}
