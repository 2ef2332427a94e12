package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter prints indented JSON. HTML characters are left unescaped
// so login links and cursors can be copied as printed.
type JSONFormatter struct{}

// Format writes data followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
