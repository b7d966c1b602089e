package notes

import (
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantFM   bool
		wantBody string
	}{
		{"none", "# Title\nbody", false, "# Title\nbody"},
		{"basic", "---\nlog: true\n---\nbody", true, "body"},
		{"dots terminator", "---\nlog: true\n...\nbody", true, "body"},
		{"crlf fence", "---\r\nlog: true\r\n---\r\nbody", true, "body"},
		{"unterminated", "---\nlog: true\nbody", false, "---\nlog: true\nbody"},
		{"malformed yaml", "---\n: [\n---\nbody", false, "---\n: [\n---\nbody"},
		{"thematic break mid-document", "intro\n---\nmore", false, "intro\n---\nmore"},
		{"fence at end", "---\nlog: true\n---", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := SplitFrontMatter(tt.in)
			if (fm != nil) != tt.wantFM {
				t.Errorf("front matter = %v, want present=%v", fm, tt.wantFM)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if tt.wantFM && fm["log"] != true {
				t.Errorf("log flag = %v", fm["log"])
			}
		})
	}
}

func TestFrontMatterTime(t *testing.T) {
	fm := map[string]interface{}{"date": "2024-05-06 07:08"}
	got, ok := frontMatterTime(fm, "created", "date")
	if !ok || got.Year() != 2024 || got.Hour() != 7 {
		t.Errorf("got %v, %v", got, ok)
	}
	if _, ok := frontMatterTime(map[string]interface{}{"date": "soon"}, "date"); ok {
		t.Error("unparseable date should be ignored")
	}
}
