package agents

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	NameAnalyzer          = "analyzer"
	NameQuestionGenerator = "question_generator"
	NameInterviewer       = "interviewer"
	NameInsightExtractor  = "insight_extractor"
	NameEnhancer          = "enhancer"
	NameVerifier          = "verifier"
)

var requiredPrompts = []string{
	NameAnalyzer,
	NameQuestionGenerator,
	NameInterviewer,
	NameInsightExtractor,
	NameEnhancer,
	NameVerifier,
}

//go:embed prompts.yaml
var defaultCatalogYAML []byte

// Prompt is one agent definition: fixed system prompt, templated user message, temperature.
type Prompt struct {
	Name        string  `yaml:"name"`
	Temperature float32 `yaml:"temperature"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`

	system *template.Template
	user   *template.Template
}

// Catalog indexes prompts by agent name.
type Catalog struct {
	prompts map[string]*Prompt
}

type catalogFile struct {
	Agents []*Prompt `yaml:"agents"`
}

// DefaultCatalog parses the embedded prompt catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// ParseCatalog decodes and validates a YAML prompt catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("agents: catalog is empty")
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("agents: decode catalog: %w", err)
	}

	cat := &Catalog{prompts: make(map[string]*Prompt, len(file.Agents))}
	for i, p := range file.Agents {
		if p == nil {
			return nil, fmt.Errorf("agents: entry %d is empty", i)
		}
		p.Name = strings.TrimSpace(p.Name)
		if err := p.compile(); err != nil {
			return nil, err
		}
		if _, dup := cat.prompts[p.Name]; dup {
			return nil, fmt.Errorf("agents: duplicate prompt %q", p.Name)
		}
		cat.prompts[p.Name] = p
	}
	for _, name := range requiredPrompts {
		if _, ok := cat.prompts[name]; !ok {
			return nil, fmt.Errorf("agents: missing prompt %q", name)
		}
	}
	return cat, nil
}

// Get returns the named prompt.
func (c *Catalog) Get(name string) (*Prompt, error) {
	p, ok := c.prompts[name]
	if !ok {
		return nil, fmt.Errorf("agents: unknown prompt %q", name)
	}
	return p, nil
}

func (p *Prompt) compile() error {
	if p.Name == "" {
		return fmt.Errorf("agents: prompt name is required")
	}
	if strings.TrimSpace(p.System) == "" {
		return fmt.Errorf("agents: prompt %q: system is required", p.Name)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("agents: prompt %q: temperature %v out of range", p.Name, p.Temperature)
	}
	var err error
	if p.system, err = template.New(p.Name + ".system").Option("missingkey=error").Parse(p.System); err != nil {
		return fmt.Errorf("agents: prompt %q: parse system: %w", p.Name, err)
	}
	if p.user, err = template.New(p.Name + ".user").Option("missingkey=error").Parse(p.User); err != nil {
		return fmt.Errorf("agents: prompt %q: parse user: %w", p.Name, err)
	}
	return nil
}

// promptData is the value every template renders against.
type promptData struct {
	Resume     string
	Analysis   string
	Questions  string
	Insights   string
	Transcript string
	Enhanced   string
}

func (p *Prompt) renderSystem(data promptData) (string, error) {
	return render(p.system, data)
}

func (p *Prompt) renderUser(data promptData) (string, error) {
	return render(p.user, data)
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("agents: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
