package confirm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/ui/confirm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      bool
		expected bool
	}{
		{"yes", "y\n", false, true},
		{"YES without newline", "YES", false, true},
		{"no", "n\n", true, false},
		{"anything else is no", "sure\n", false, false},
		{"empty takes default no", "\n", false, false},
		{"empty takes default yes", "\n", true, true},
		{"end of input takes default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			d := confirm.NewConsoleDialog(strings.NewReader(tt.input), &out)

			got, err := d.Ask(confirm.Request{Question: "Remove /srv/app?", Default: tt.def})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAskPrompt(t *testing.T) {
	var out bytes.Buffer
	d := confirm.NewConsoleDialog(strings.NewReader("n\n"), &out)

	_, err := d.Ask(confirm.Request{
		Question: "Remove /srv/app on example.org?",
		Items:    []string{"releases", "shared", "www", "synchronized"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Remove /srv/app on example.org?\n    └── releases, shared, www and 1 more\nContinue? [y/N]: ",
		out.String())
}

func TestAskSeveralQuestions(t *testing.T) {
	d := confirm.NewConsoleDialog(strings.NewReader("y\nn\n"), &bytes.Buffer{})

	first, err := d.Ask(confirm.Request{Question: "one"})
	require.NoError(t, err)
	second, err := d.Ask(confirm.Request{Question: "two"})
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}
