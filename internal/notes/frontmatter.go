package notes

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SplitFrontMatter separates a leading YAML block fenced by "---" lines from the body.
// Text without a well-formed block comes back unchanged with nil front matter; a block
// that fails to parse is treated as body text so the note is never lost.
func SplitFrontMatter(text string) (map[string]interface{}, string) {
	if !strings.HasPrefix(text, "---") {
		return nil, text
	}
	firstNL := strings.IndexByte(text, '\n')
	if firstNL < 0 || strings.TrimSpace(text[:firstNL]) != "---" {
		return nil, text
	}

	rest := text[firstNL+1:]
	offset := 0
	for {
		nl := strings.IndexByte(rest[offset:], '\n')
		var line string
		if nl < 0 {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+nl]
		}
		if t := strings.TrimRight(line, " \t\r"); t == "---" || t == "..." {
			block := rest[:offset]
			body := ""
			if nl >= 0 {
				body = rest[offset+nl+1:]
			}
			fm := map[string]interface{}{}
			if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
				return nil, text
			}
			return fm, body
		}
		if nl < 0 {
			return nil, text
		}
		offset += nl + 1
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// frontMatterTime reads the first of keys that holds a timestamp.
func frontMatterTime(fm map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		switch v := fm[k].(type) {
		case time.Time:
			return v, true
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}
