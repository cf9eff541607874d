package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

//go:embed platforms.yaml
var platformsYAML []byte

// Guideline describes how to write for one platform.
type Guideline struct {
	Voice     string   `yaml:"voice"`
	Structure string   `yaml:"structure"`
	Hashtags  string   `yaml:"hashtags"`
	Avoid     []string `yaml:"avoid"`
}

// Guidelines maps each platform to its writing guideline.
type Guidelines map[domain.Platform]Guideline

// LoadGuidelines parses the embedded platform guidelines.
func LoadGuidelines() (Guidelines, error) {
	return ParseGuidelines(platformsYAML)
}

// ParseGuidelines parses guidelines from yaml. every known platform must be present.
func ParseGuidelines(data []byte) (Guidelines, error) {
	var raw map[string]Guideline
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing platform guidelines: %w", err)
	}

	g := make(Guidelines, len(raw))
	for name, guideline := range raw {
		p, err := domain.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("platform guidelines: %w", err)
		}
		g[p] = guideline
	}

	for _, p := range domain.AllPlatforms() {
		if _, ok := g[p]; !ok {
			return nil, fmt.Errorf("platform guidelines: missing %s", p)
		}
	}
	return g, nil
}

// Render returns the guideline as prompt text, including the character limit.
func (g Guidelines) Render(p domain.Platform) string {
	gl := g[p]

	var b strings.Builder
	fmt.Fprintf(&b, "Platform: %s (max %d characters)\n", p, p.CharacterLimit())
	if gl.Voice != "" {
		fmt.Fprintf(&b, "Voice: %s\n", gl.Voice)
	}
	if gl.Structure != "" {
		fmt.Fprintf(&b, "Structure: %s\n", gl.Structure)
	}
	if gl.Hashtags != "" {
		fmt.Fprintf(&b, "Hashtags: %s\n", gl.Hashtags)
	}
	for _, a := range gl.Avoid {
		fmt.Fprintf(&b, "Avoid: %s\n", a)
	}
	return b.String()
}
