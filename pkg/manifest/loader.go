package manifest

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinSource is the manifest source sentinel meaning "read standard input".
const StdinSource = "-"

// LoadFromSource reads manifest content from a file path or, when source is
// "-", from the given reader, and parses it. A blank stdin is a user error,
// not an empty manifest.
func LoadFromSource(source string, stdin io.Reader, opts ParseOptions) (*SemanticManifest, error) {
	src := strings.TrimSpace(source)

	var raw []byte
	if src == StdinSource {
		contents, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(contents)) == "" {
			return nil, fmt.Errorf("stdin is empty; pass a semantic manifest JSON string or file")
		}
		raw = contents
	} else {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			return nil, fmt.Errorf("semantic manifest not found: %s", src)
		}
		contents, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read semantic manifest %s: %w", src, err)
		}
		raw = contents
	}

	return Parse(raw, opts)
}
