package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Envelope is the top-level shape of every JSON response the CLI prints.
type Envelope struct {
	Data any `json:"data"`
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default): {"data": v}
// - text: a table for known values, indented JSON otherwise
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, Envelope{Data: v}, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s (want json or text)", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
