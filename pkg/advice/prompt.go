package advice

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var defaultPrompt string

// Prompt renders the tutor instructions for a request.
type Prompt struct {
	tmpl *template.Template
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() *Prompt {
	return &Prompt{tmpl: template.Must(template.New("advice").Parse(defaultPrompt))}
}

// LoadPrompt parses a prompt template from path. An empty path yields the
// built-in prompt.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return DefaultPrompt(), nil
	}
	// #nosec G304 -- path comes from admin-controlled config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template: %w", err)
	}
	tmpl, err := template.New("advice").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// Render fills the template with the request.
func (p *Prompt) Render(req Request) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
