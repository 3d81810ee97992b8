package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a multi-part terminal message.
//
// Example output:
//
//	❌ NO IMPORTER: .txtt
//	   No importer is registered for extension "txtt".
//
//	   Did you mean: txt?
//
//	   → List importers: assetimport importers
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Detail      string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// Format renders the message
func (m Message) Format() string {
	var b strings.Builder

	var head, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		head, body, symbol = newColor(m.NoColor, color.FgYellow, color.Bold), newColor(m.NoColor, color.FgYellow), "⚠️"
	case LevelInfo:
		head, body, symbol = newColor(m.NoColor, color.FgCyan, color.Bold), newColor(m.NoColor, color.FgCyan), "ℹ️"
	default:
		head, body, symbol = newColor(m.NoColor, color.FgRed, color.Bold), newColor(m.NoColor, color.FgRed), "❌"
	}

	if m.Context != "" {
		head.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(m.Context))
		body.Fprintf(&b, "   %s\n", m.Problem)
	} else {
		head.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", m.Detail)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(m.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Hints) > 0 {
		b.WriteString("\n")
		cyan := newColor(m.NoColor, color.FgCyan)
		for _, hint := range m.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}

	return b.String()
}

// Write renders the message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// FormatSuccess creates a success line
func FormatSuccess(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// NoImporterError reports a source whose extension has no importer.
func NoImporterError(path, ext string, known []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "no importer: " + path,
		Problem:     fmt.Sprintf("No importer is registered for extension %q.", ext),
		Suggestions: SuggestExtensions(ext, known),
		Hints:       []string{"List importers: assetimport importers"},
		NoColor:     noColor,
	}
}

// ImportFailedError reports a source whose import failed.
func ImportFailedError(path string, err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "import failed: " + path,
		Problem: err.Error(),
		Detail:  "The previous metadata for this source was left untouched.",
		Hints:   []string{"Re-run with --verbose for importer logs"},
		NoColor: noColor,
	}
}

// ConfigError reports an invalid configuration.
func ConfigError(err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		Hints: []string{
			"View config: cat assetimport.yaml",
			"Get help: assetimport --help",
		},
		NoColor: noColor,
	}
}

// Warning creates a warning message
func Warning(message string, noColor bool) Message {
	return Message{Level: LevelWarning, Problem: message, NoColor: noColor}
}
