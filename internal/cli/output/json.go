package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data as two-space-indented JSON to the writer, with a
// trailing newline so shell pipelines compose cleanly.
func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
