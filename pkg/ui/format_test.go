package ui_test

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/ui"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		name     string
		format   ui.Format
		expected string
	}{
		{"auto format", ui.FormatAuto, "auto"},
		{"terminal format", ui.FormatTerminal, "term"},
		{"text format", ui.FormatText, "text"},
		{"json format", ui.FormatJSON, "json"},
		{"unknown format", ui.Format(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ui.Format
		wantErr bool
	}{
		{"", ui.FormatAuto, false},
		{"auto", ui.FormatAuto, false},
		{"TERM", ui.FormatTerminal, false},
		{"terminal", ui.FormatTerminal, false},
		{"plain", ui.FormatText, false},
		{"JSON", ui.FormatJSON, false},
		{"html", ui.FormatAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ui.ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ui.FormatText, ui.DetectFormat(&buf))
	assert.Equal(t, ui.FormatText, ui.Resolve(ui.FormatAuto, &buf))
	assert.Equal(t, ui.FormatTerminal, ui.Resolve(ui.FormatTerminal, &buf))
}

func TestDetectFormatHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, ui.FormatText, ui.DetectFormat(&bytes.Buffer{}))
}

func TestColorProfile(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, termenv.Ascii, ui.ColorProfile(ui.FormatText, &buf))
	assert.Equal(t, termenv.Ascii, ui.ColorProfile(ui.FormatAuto, &buf))
	assert.Equal(t, termenv.ANSI256, ui.ColorProfile(ui.FormatTerminal, &buf))
	assert.Equal(t, termenv.Ascii, ui.ColorProfile(ui.FormatJSON, &buf))
}
