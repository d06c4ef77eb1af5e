// Package ui decides how sshrelease output is rendered.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format represents the output format type
type Format int

const (
	// FormatAuto picks FormatTerminal or FormatText from the output and
	// the environment.
	FormatAuto Format = iota
	// FormatTerminal renders colored step headings
	FormatTerminal
	// FormatText renders plain text output without any styling
	FormatText
	// FormatJSON emits one JSON object per event for machine consumption
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatTerminal:
		return "term"
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses a string into a Format value
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return FormatAuto, nil
	case "term", "terminal":
		return FormatTerminal, nil
	case "text", "plain":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format: %s", s)
	}
}

// DetectFormat determines the appropriate output format based on environment and terminal capabilities
func DetectFormat(output io.Writer) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}

	file, ok := output.(*os.File)
	if !ok {
		return FormatText
	}
	if !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
		return FormatText
	}

	if termenv.NewOutput(file).EnvColorProfile() == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}

// Resolve replaces FormatAuto with the detected format for output.
func Resolve(format Format, output io.Writer) Format {
	if format == FormatAuto {
		return DetectFormat(output)
	}
	return format
}

// ColorProfile returns the termenv profile used to render format on
// output.
func ColorProfile(format Format, output io.Writer) termenv.Profile {
	if f := Resolve(format, output); f == FormatText || f == FormatJSON {
		return termenv.Ascii
	}
	if file, ok := output.(*os.File); ok {
		return termenv.NewOutput(file).EnvColorProfile()
	}
	return termenv.ANSI256
}
