// Package styles defines the visual styling of sshrelease terminal output.
//
// Styles use semantic names and adaptive colors that adjust to light and
// dark terminal themes. The definitions live in the embedded styles.yaml
// and can be replaced at runtime with LoadStylesFromFile.
package styles

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var defaultStyles []byte

// ColorDef represents an adaptive color definition in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef represents a style definition in YAML
type StyleDef struct {
	Bold         bool   `yaml:"bold,omitempty"`
	Italic       bool   `yaml:"italic,omitempty"`
	Underline    bool   `yaml:"underline,omitempty"`
	Foreground   string `yaml:"foreground,omitempty"`
	Background   string `yaml:"background,omitempty"`
	MarginTop    int    `yaml:"marginTop,omitempty"`
	MarginBottom int    `yaml:"marginBottom,omitempty"`
	PaddingLeft  int    `yaml:"paddingLeft,omitempty"`
}

// Config represents the complete styles configuration
type Config struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Default returns the embedded styles configuration.
func Default() *Config {
	cfg, err := Parse(defaultStyles)
	if err != nil {
		panic(fmt.Sprintf("embedded styles.yaml is invalid: %v", err))
	}
	return cfg
}

// Parse reads a styles configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}
	return &cfg, nil
}

// LoadStylesFromFile reads a custom styles configuration from path.
func LoadStylesFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read styles file %s: %w", path, err)
	}
	return Parse(data)
}

// Registry maps semantic names to lipgloss styles bound to one renderer.
type Registry struct {
	styles map[string]lipgloss.Style
	r      *lipgloss.Renderer
}

// Build binds every style of cfg to r.
func (cfg *Config) Build(r *lipgloss.Renderer) *Registry {
	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	reg := &Registry{styles: make(map[string]lipgloss.Style, len(cfg.Styles)), r: r}
	for name, def := range cfg.Styles {
		reg.styles[name] = buildStyle(r, def, colors)
	}
	return reg
}

// buildStyle constructs a lipgloss style from a style definition
func buildStyle(r *lipgloss.Renderer, def StyleDef, colors map[string]lipgloss.AdaptiveColor) lipgloss.Style {
	style := r.NewStyle()

	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}

	if color, ok := colors[def.Foreground]; ok {
		style = style.Foreground(color)
	}
	if color, ok := colors[def.Background]; ok {
		style = style.Background(color)
	}

	if def.MarginTop > 0 {
		style = style.MarginTop(def.MarginTop)
	}
	if def.MarginBottom > 0 {
		style = style.MarginBottom(def.MarginBottom)
	}
	if def.PaddingLeft > 0 {
		style = style.PaddingLeft(def.PaddingLeft)
	}

	return style
}

// Get safely retrieves a style from the registry
func (reg *Registry) Get(name string) lipgloss.Style {
	if style, ok := reg.styles[name]; ok {
		return style
	}
	return reg.r.NewStyle()
}

// Render renders text with the named style.
func (reg *Registry) Render(name, text string) string {
	return reg.Get(name).Render(text)
}

// Has reports whether name is defined.
func (reg *Registry) Has(name string) bool {
	_, ok := reg.styles[name]
	return ok
}
