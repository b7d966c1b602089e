package extract

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

// extractRich handles RTF and ODT notes. Both formats are detected from content by cat.
func extractRich(content []byte, ext string) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return strings.TrimSpace(text), nil
}
