package research

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"research-agent/internal/shared/config"
)

// SectionName is the prompt configuration section read by the research agent.
const SectionName = "RESEARCH_ANALYZER"

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig configures the research node's model call.
type PromptConfig struct {
	Model              string  `yaml:"model"`
	Temperature        float64 `yaml:"temperature"`
	SystemPrompt       *string `yaml:"system_prompt"`
	UserPromptTemplate *string `yaml:"user_prompt_template"`
}

type promptFile struct {
	ResearchAnalyzer *PromptConfig `yaml:"RESEARCH_ANALYZER"`
}

// LoadPromptConfig reads the RESEARCH_ANALYZER section from path, or from the
// embedded defaults when path is empty. Unknown keys are ignored.
func LoadPromptConfig(path string) (PromptConfig, error) {
	data := defaultPrompts
	source := "embedded prompts.yaml"
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return PromptConfig{}, &config.Error{Key: "prompts_file", Err: err}
		}
		data = raw
		source = path
	}
	return ParsePromptConfig(data, source)
}

// ParsePromptConfig parses a prompt configuration document.
func ParsePromptConfig(data []byte, source string) (PromptConfig, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PromptConfig{}, &config.Error{Key: SectionName, Err: fmt.Errorf("parse %s: %w", source, err)}
	}
	if file.ResearchAnalyzer == nil {
		return PromptConfig{}, &config.Error{Key: SectionName, Err: fmt.Errorf("section missing in %s", source)}
	}
	cfg := *file.ResearchAnalyzer
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return PromptConfig{}, &config.Error{Key: SectionName + ".model", Err: errors.New("model is required")}
	}
	if cfg.Temperature < 0 {
		return PromptConfig{}, &config.Error{Key: SectionName + ".temperature", Err: fmt.Errorf("must be >= 0, got %v", cfg.Temperature)}
	}
	return cfg, nil
}
