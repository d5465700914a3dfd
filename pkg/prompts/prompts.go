// Package prompts loads versioned YAML prompt templates. Each pipeline keeps
// its templates in its own subdirectory, one file per version, so prompt
// wording can evolve without touching code.
package prompts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Pipeline identifies which template family a version belongs to.
const (
	PipelineInfo   = "info_retrieval"
	PipelineScript = "script_generation"
)

// APIType selects the request shape a template is written for.
type APIType string

const (
	// APITypeChat renders into a system + user chat completion request.
	APITypeChat APIType = "chat"
	// APITypeResponses renders into an instruction + input request with
	// optional tool definitions (web search and the like).
	APITypeResponses APIType = "responses"
)

type Template struct {
	Version     string         `yaml:"-"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Tags        []string       `yaml:"tags"`
	APIType     APIType        `yaml:"api_type"`
	Parameters  map[string]any `yaml:"parameters"`

	Instructions       string           `yaml:"instructions"`
	SystemPrompt       string           `yaml:"system_prompt"`
	UserPromptTemplate string           `yaml:"user_prompt_template"`
	Tools              []map[string]any `yaml:"tools"`
}

// InfoParams feeds the info-retrieval user prompt.
type InfoParams struct {
	Keyword string
}

// ScriptParams feeds the script-generation user prompt.
type ScriptParams struct {
	Keyword     string
	InfoContent string
}

// Load reads one template version for a pipeline from dir.
func Load(dir, pipeline, version string) (*Template, error) {
	name := version
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	path := filepath.Join(dir, pipeline, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", path, err)
	}
	t.Version = strings.TrimSuffix(name, ".yaml")

	if t.APIType == "" {
		t.APIType = APITypeChat
	}
	if t.APIType != APITypeChat && t.APIType != APITypeResponses {
		return nil, fmt.Errorf("prompt template %s: unknown api_type %q", path, t.APIType)
	}

	return &t, nil
}

// List returns the available versions for a pipeline, sorted.
func List(dir, pipeline string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pipeline, "*.yaml"))
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(matches))
	for _, m := range matches {
		versions = append(versions, strings.TrimSuffix(filepath.Base(m), ".yaml"))
	}
	sort.Strings(versions)
	return versions, nil
}

// SystemText returns the static instruction text regardless of API shape.
func (t *Template) SystemText() string {
	if t.APIType == APITypeResponses {
		return t.Instructions
	}
	return t.SystemPrompt
}

// RenderInfo renders the user-facing payload for the info pipeline.
func (t *Template) RenderInfo(params InfoParams) (string, error) {
	return t.render(params)
}

// RenderScript renders the user-facing payload for the script pipeline.
func (t *Template) RenderScript(params ScriptParams) (string, error) {
	return t.render(params)
}

func (t *Template) render(data any) (string, error) {
	tmpl, err := template.New("prompt").Parse(t.UserPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
