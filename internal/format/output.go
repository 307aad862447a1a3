package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Names accepted by --format and SIGNER_FORMAT.
const (
	JSON = "json"
	YAML = "yaml"
)

// Write encodes v to w as JSON or YAML. An empty name means JSON; pretty only
// affects JSON.
func Write(w io.Writer, v any, name string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case YAML, "yml":
		return WriteYAML(w, v)
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", name, JSON, YAML)
}

// WriteJSON writes v as a single JSON document followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
