package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/hay-kot/criterio"
	"github.com/hay-kot/dyna/pkg/tmpl"
)

// PromptTemplateData defines the fields available to the system prompt template.
type PromptTemplateData struct {
	AgentVersion  string // Build version of the binary
	CurrentDate   string // Date and time the turn started
	MemoryListID  string // Document id of the memory list, or an ERROR_* marker
	MemoryContent string // Rendered memory list
}

// ValidateDeep performs comprehensive validation of the configuration
// including URLs, the prompt template and file accessibility. The
// configPath argument specifies the config file location to validate
// (empty string skips the config file check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		criterio.Run("openai.base_url", c.OpenAI.BaseURL, httpURL),
		criterio.Run("dynalist.base_url", c.Dynalist.BaseURL, httpURL),
		criterio.Run("agent.system_prompt", c.Agent.SystemPrompt, promptTemplateFile),
	)
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func httpURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// promptTemplateFile checks that a custom system prompt exists and renders
// with placeholder data.
func promptTemplateFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read: %w", err)
	}
	return ValidatePromptTemplate(string(data))
}

// ValidatePromptTemplate reports syntax errors and references to unknown fields.
func ValidatePromptTemplate(src string) error {
	_, err := tmpl.Render(src, PromptTemplateData{
		AgentVersion:  "dev",
		CurrentDate:   "2006-01-02 15:04:05",
		MemoryListID:  "test",
		MemoryContent: "- test",
	})
	if err != nil {
		return fmt.Errorf("template error: %w", err)
	}
	return nil
}
