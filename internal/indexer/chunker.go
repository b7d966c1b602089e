package indexer

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits note bodies into heading-aligned chunks bounded by character count.
type Chunker struct {
	maxChars int
	minChars int
}

// NewChunker creates a chunker. Chunks longer than maxChars are never emitted and
// chunks shorter than minChars are dropped. Non-positive values take the defaults 512 and 15.
func NewChunker(maxChars, minChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = 512
	}
	if minChars <= 0 {
		minChars = 15
	}
	if minChars > maxChars {
		minChars = maxChars
	}
	return &Chunker{maxChars: maxChars, minChars: minChars}
}

// Split scans text line by line. A heading line or a line that would push the buffer
// past maxChars flushes the buffer; a line longer than maxChars on its own is cut into
// maxChars-sized pieces. Lengths are counted in runes.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	emit := func(s string) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) >= c.minChars {
			chunks = append(chunks, s)
		}
	}
	flush := func() {
		if bufLen > 0 {
			emit(buf.String())
		}
		buf.Reset()
		bufLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		n := utf8.RuneCountInString(line)

		if n > c.maxChars {
			flush()
			for _, piece := range splitRunes(line, c.maxChars) {
				emit(piece)
			}
			continue
		}

		if isHeading(line) {
			flush()
		}
		if bufLen > 0 && bufLen+1+n > c.maxChars {
			flush()
		}
		if bufLen > 0 {
			buf.WriteByte('\n')
			bufLen++
		}
		buf.WriteString(line)
		bufLen += n
	}
	flush()
	return chunks
}

// isHeading reports whether line is a markdown ATX heading ("# Title" through "###### Title").
func isHeading(line string) bool {
	s := strings.TrimLeft(line, " ")
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	return level >= 1 && level <= 6 && level < len(s) && s[level] == ' '
}

func splitRunes(s string, size int) []string {
	r := []rune(s)
	pieces := make([]string, 0, len(r)/size+1)
	for start := 0; start < len(r); start += size {
		end := start + size
		if end > len(r) {
			end = len(r)
		}
		pieces = append(pieces, string(r[start:end]))
	}
	return pieces
}
