package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/inventory/resource"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type attributeView struct {
	Type    string         `json:"type" yaml:"type"`
	Payload map[string]any `json:"payload" yaml:"payload"`
}

type resourceView struct {
	URN                 string          `json:"urn" yaml:"urn"`
	Payload             map[string]any  `json:"payload" yaml:"payload"`
	SecondaryAttributes []attributeView `json:"secondary_attributes" yaml:"secondary_attributes"`
}

func viewOf(r *resource.Resource) resourceView {
	v := resourceView{
		URN:                 r.URN.String(),
		Payload:             r.Payload,
		SecondaryAttributes: make([]attributeView, 0, len(r.SecondaryAttributes)),
	}
	for _, a := range r.SecondaryAttributes {
		v.SecondaryAttributes = append(v.SecondaryAttributes, attributeView{Type: a.Type, Payload: a.Payload})
	}
	return v
}

// render writes v to w in the given format.
func render(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}
