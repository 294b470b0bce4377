package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// validateFormat returns an error if f is not a supported output format.
func validateFormat(f string) error {
	switch f {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format (%s), expected json or yaml", f)
	}
}

// render writes v to w in the given format.
//
// v is always marshaled to JSON first, so that raw JSON values are rendered
// as structured data rather than as strings.
func render(w io.Writer, format string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if format == "yaml" {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(doc); err != nil {
			return err
		}

		return enc.Close()
	}

	var out []byte
	out, err = json.MarshalIndent(json.RawMessage(data), "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}
