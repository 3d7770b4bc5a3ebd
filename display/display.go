// Package display renders engine status, visualizer snapshots and the
// parameter list as text, using text/template with the sprig functions.
package display

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/sequencer"
)

type Display struct {
	Template *template.Template
}

//go:embed templates/*.txt
var templateFS embed.FS

var bars = []rune(" ▁▂▃▄▅▆▇█")

var funcs = template.FuncMap{
	// bar draws a level in [0, 1] as a single block character.
	"bar": func(level float32) string {
		i := int(level*float32(len(bars)-1) + 0.5)
		return string(bars[min(max(i, 0), len(bars)-1)])
	},
	// steps draws a pattern of n steps with the current one highlighted.
	"steps": func(current, n int) string {
		var b strings.Builder
		for i := range n {
			if i == current {
				b.WriteByte('#')
			} else if i%4 == 0 {
				b.WriteByte('|')
			} else {
				b.WriteByte('.')
			}
		}
		return b.String()
	},
}

// New returns a Display using the built-in templates.
func New() (*Display, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	return &Display{Template: tmpl}, nil
}

// NewFromTemplates returns a Display using the templates in a directory.
// The directory must define the templates "status", "feed" and "params".
func NewFromTemplates(templateDirectory string) (*Display, error) {
	globPtrn := filepath.Join(templateDirectory, "*.*")
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).Funcs(funcs).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Display{Template: tmpl}, nil
}

func (d *Display) Status(s sequencer.Status) (string, error) {
	return d.execute("status", s)
}

func (d *Display) Feed(s sequencer.Snapshot) (string, error) {
	return d.execute("feed", s)
}

// Param is one row of the parameter listing.
type Param struct {
	Path  string
	Value any
	Range string
	Unit  string
}

// Params lists the parameters of e with their current values.
func (d *Display) Params(e *sequencer.Engine) (string, error) {
	var rows []Param
	for _, spec := range e.Params() {
		value, err := e.Parameter(spec.Target, spec.Name)
		if err != nil {
			return "", err
		}
		rows = append(rows, paramRow(spec, value))
	}
	return d.execute("params", rows)
}

func paramRow(spec trancebox.ParamSpec, value any) Param {
	return Param{Path: spec.Path(), Value: value, Range: spec.Range(), Unit: spec.Unit}
}

func (d *Display) execute(name string, data any) (string, error) {
	var populated bytes.Buffer
	if err := d.Template.ExecuteTemplate(&populated, name, data); err != nil {
		return "", fmt.Errorf(`could not execute template "%v": %v`, name, err)
	}
	return populated.String(), nil
}
