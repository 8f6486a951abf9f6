package agent

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/dyna/internal/core/config"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/hay-kot/dyna/pkg/tmpl"
)

//go:embed prompts/system.md
var defaultSystemPrompt string

// fallbackPrompt is used when the system prompt template fails to render.
const fallbackPrompt = `You are Dyna, a Dynalist assistant that helps users manage their lists and documents efficiently.
Agent Version: %s
Current Date: %s

You have access to comprehensive Dynalist tools to help users with:
- Creating and managing lists
- Adding items with hierarchy (levels, notes, colors, headings)
- Viewing list structures and content
- Editing, moving, and organizing items
- Checking/unchecking and deleting items

Always be helpful and efficient in managing the user's Dynalist content.`

// Prompt builds the system prompt for a turn.
type Prompt struct {
	tmpl    *tmpl.Template
	version string
	memory  *Memory
	now     func() time.Time
}

// NewPrompt parses src as the system prompt template. An empty src uses the
// built-in prompt.
func NewPrompt(src, version string, memory *Memory, now func() time.Time) (*Prompt, error) {
	if src == "" {
		src = defaultSystemPrompt
	}
	if now == nil {
		now = time.Now
	}
	t, err := tmpl.Parse("system", src)
	if err != nil {
		return nil, err
	}
	return &Prompt{tmpl: t, version: version, memory: memory, now: now}, nil
}

// LoadPrompt reads the template at path, or the built-in prompt when path is
// empty.
func LoadPrompt(path, version string, memory *Memory, now func() time.Time) (*Prompt, error) {
	var src string
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		src = string(b)
	}
	return NewPrompt(src, version, memory, now)
}

// Build renders the prompt. client is nil when the user has no credential.
func (p *Prompt) Build(ctx context.Context, client outline.Client) string {
	now := p.now()
	data := config.PromptTemplateData{
		AgentVersion:  p.version,
		CurrentDate:   now.Format(time.DateTime),
		MemoryListID:  NoTokenListID,
		MemoryContent: NoTokenContent,
	}

	if client != nil {
		info := p.memory.Load(ctx, client)
		data.MemoryListID = info.ListID
		data.MemoryContent = info.Content
		if data.MemoryContent == "" {
			data.MemoryContent = EmptyMemoryContent
		}
	}

	out, err := p.tmpl.Execute(data)
	if err != nil {
		log := logging.Component("prompt")
		log.Error().Err(err).Msg("render system prompt, using fallback")
		return fmt.Sprintf(fallbackPrompt, p.version, now.Format(time.DateOnly))
	}
	return out
}
