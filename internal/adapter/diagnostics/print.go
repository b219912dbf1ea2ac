package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// TextPrinter writes one record per line as path:line: severity code: message.
type TextPrinter struct {
	out     io.Writer
	info    *color.Color
	warning *color.Color
	error   *color.Color
	loc     *color.Color
}

func NewTextPrinter(out io.Writer, useColor bool) *TextPrinter {
	p := &TextPrinter{
		out:     out,
		info:    color.New(color.FgCyan),
		warning: color.New(color.FgYellow, color.Bold),
		error:   color.New(color.FgRed, color.Bold),
		loc:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.info, p.warning, p.error, p.loc} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *TextPrinter) Print(records []Record) error {
	for _, r := range records {
		sev := p.info
		switch r.Severity {
		case Warning:
			sev = p.warning
		case Error:
			sev = p.error
		}
		_, err := fmt.Fprintf(p.out, "%s %s %s: %s\n",
			p.loc.Sprintf("%s:%d:", r.File, r.Line),
			sev.Sprint(r.Severity.String()),
			r.Code,
			r.Message,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// JSONPrinter writes all records as a single JSON document.
type JSONPrinter struct {
	out io.Writer
}

func NewJSONPrinter(out io.Writer) *JSONPrinter {
	return &JSONPrinter{out: out}
}

type jsonReport struct {
	Records []Record       `json:"records"`
	Counts  map[string]int `json:"counts"`
}

func (p *JSONPrinter) Print(records []Record) error {
	report := jsonReport{
		Records: records,
		Counts:  map[string]int{"info": 0, "warning": 0, "error": 0},
	}
	if report.Records == nil {
		report.Records = []Record{}
	}
	for _, r := range records {
		report.Counts[r.Severity.String()]++
	}
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
