package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatTemplate renders a Go template with sprig functions
	OutputFormatTemplate OutputFormat = "template"
)

const templatePrefix = "template="

// Output is a parsed --output value.
type Output struct {
	Format   OutputFormat
	Template *template.Template
}

// ParseOutput parses "table", "json", "yaml" or "template=<go template>".
func ParseOutput(s string) (Output, error) {
	switch OutputFormat(s) {
	case "", OutputFormatTable:
		return Output{Format: OutputFormatTable}, nil
	case OutputFormatJSON, OutputFormatYAML:
		return Output{Format: OutputFormat(s)}, nil
	}

	if body, ok := strings.CutPrefix(s, templatePrefix); ok {
		tmpl, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(body)
		if err != nil {
			return Output{}, fmt.Errorf("invalid output template: %w", err)
		}
		return Output{Format: OutputFormatTemplate, Template: tmpl}, nil
	}

	return Output{}, fmt.Errorf("unsupported output format: %q (valid: table, json, yaml, template=...)", s)
}

// Printer writes command results in the selected format.
type Printer struct {
	Out       io.Writer
	Output    Output
	NoHeaders bool
}

// Print writes data. For table output, fill populates the table; data is
// used for every other format.
func (p *Printer) Print(data any, fill func(t table.Writer)) error {
	switch p.Output.Format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = p.Out.Write(out)
		return err
	case OutputFormatTemplate:
		if err := p.Output.Template.Execute(p.Out, data); err != nil {
			return fmt.Errorf("failed to render template: %w", err)
		}
		_, err := fmt.Fprintln(p.Out)
		return err
	default:
		t := NewTable(p.Out)
		fill(t)
		if p.NoHeaders {
			t.ResetHeaders()
		}
		t.Render()
		return nil
	}
}

// NewTable returns a plain, kubectl-style table writing to w.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(plainStyle())
	return t
}

func plainStyle() table.Style {
	style := table.StyleLight
	style.Name = "plain"
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = "   "
	style.Options = table.Options{}
	return style
}
