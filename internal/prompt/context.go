// Package prompt assembles retrieved chunks and conversation history into a
// size-bounded prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

const (
	PersonalFocusHeader = "### Personal Focus (authoritative for planning and tracking)"
	GeneralHeader       = "### General Context"
	BandSeparator       = "---"
	EndMarker           = "### End of Retrieved Context"
)

// Assembler renders scored chunks into a context block.
type Assembler struct {
	// LogTag is the metadata key that marks a chunk as a log entry.
	LogTag string
}

// NewAssembler returns an assembler using logTag, defaulting to "log".
func NewAssembler(logTag string) *Assembler {
	if logTag == "" {
		logTag = "log"
	}
	return &Assembler{LogTag: logTag}
}

// BuildContextBlock renders chunks with the default log tag.
func BuildContextBlock(chunks []models.ScoredChunk) string {
	return NewAssembler("").Assemble(chunks)
}

// Assemble renders personal-focus chunks first, then the rest, each band keeping
// the incoming order. It returns "" for empty input.
func (a *Assembler) Assemble(chunks []models.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var focus, general []models.ScoredChunk
	for _, c := range chunks {
		if c.PersonalFocus {
			focus = append(focus, c)
		} else {
			general = append(general, c)
		}
	}

	var sections []string
	if len(focus) > 0 {
		sections = append(sections, a.band(PersonalFocusHeader, focus, false))
	}
	if len(general) > 0 {
		if len(sections) > 0 {
			sections = append(sections, BandSeparator)
		}
		sections = append(sections, a.band(GeneralHeader, general, true))
	}
	sections = append(sections, EndMarker)
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func (a *Assembler) band(header string, chunks []models.ScoredChunk, tagLogs bool) string {
	entries := make([]string, 0, len(chunks)+1)
	entries = append(entries, header)
	for i, c := range chunks {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] %s score: %s", i+1, displayName(&c.Chunk), formatScore(&c))
		if tagLogs && c.Flag(a.LogTag) {
			b.WriteString(" [" + a.LogTag + "]")
		}
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(c.Text))
		entries = append(entries, b.String())
	}
	return strings.Join(entries, "\n\n")
}

func displayName(c *models.Chunk) string {
	if c.Title == "" || c.Title == c.Path {
		return c.Path
	}
	if c.Path == "" {
		return c.Title
	}
	return c.Title + " (" + c.Path + ")"
}

func formatScore(c *models.ScoredChunk) string {
	if !c.HasScore() {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", c.Score)
}
