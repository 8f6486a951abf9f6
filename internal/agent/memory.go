package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/outline"
)

// Placeholders injected into the system prompt when the memory list is
// unavailable.
const (
	NoTokenListID      = "ERROR_NO_TOKEN"
	NoTokenContent     = "No Dynalist token provided. Please set your token with /token command."
	AccessErrorContent = "Error: Could not access memory system. Please check your Dynalist token."
	ReadErrorContent   = "Error reading memory content."
	EmptyMemoryContent = "No memory items stored yet."

	seedNote = "This list stores important information about the user across conversations."
)

// MemoryInfo describes the user's memory list as seen at the start of a turn.
type MemoryInfo struct {
	ListID  string
	Content string
	Exists  bool
}

// Memory finds or creates the document the model uses as long-term memory.
type Memory struct {
	title string
	now   func() time.Time
}

// NewMemory returns a Memory for the document titled title.
func NewMemory(title string, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{title: title, now: now}
}

// Load returns the memory list id and its rendered content. It never fails;
// problems are reported through placeholder values the model can read.
func (m *Memory) Load(ctx context.Context, client outline.Client) MemoryInfo {
	log := logging.Component("memory")

	files, err := client.ListFiles(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list files for memory")
		return MemoryInfo{Content: AccessErrorContent}
	}

	for _, f := range files {
		if f.Type == outline.FileTypeDocument && f.Title == m.title {
			return MemoryInfo{ListID: f.ID, Content: m.read(ctx, client, f.ID), Exists: true}
		}
	}

	id, err := client.CreateDocument(ctx, m.title, outline.RootID)
	if err != nil {
		log.Warn().Err(err).Msg("create memory list")
		return MemoryInfo{Content: AccessErrorContent}
	}

	seed := []*outline.Node{{
		Content:  fmt.Sprintf("Memory initialized on %s", m.now().Format(time.DateOnly)),
		Note:     seedNote,
		Checkbox: true,
	}}
	if _, err := client.InsertTree(ctx, id, outline.RootID, seed); err != nil {
		log.Warn().Err(err).Str("list_id", id).Msg("seed memory list")
		return MemoryInfo{Content: AccessErrorContent}
	}

	log.Info().Str("list_id", id).Msg("created memory list")
	return MemoryInfo{ListID: id, Content: outline.Render(seed)}
}

func (m *Memory) read(ctx context.Context, client outline.Client, id string) string {
	tree, err := client.ReadTree(ctx, id)
	if err != nil {
		log := logging.Component("memory")
		log.Warn().Err(err).Str("list_id", id).Msg("read memory list")
		return ReadErrorContent
	}
	if len(tree) == 0 {
		return EmptyMemoryContent
	}
	return outline.Render(tree)
}
