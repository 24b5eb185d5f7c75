package page

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata keys written by the ingest pipeline.
const (
	MetadataAIParsed = "ai_parsed"
	MetadataMetaTags = "meta_tags"
)

// Metadata is an open JSON document stored alongside a page. It has no fixed
// schema and is returned verbatim.
type Metadata map[string]any

// Clone returns a deep copy made through a JSON round trip, so nested maps
// and slices are not shared with the caller. A nil or unencodable document
// yields an empty one.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Metadata{}
	}
	out, err := ParseMetadata(raw)
	if err != nil {
		return Metadata{}
	}
	return out
}

// JSON encodes the document.
func (m Metadata) JSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return raw, nil
}

// ParseMetadata decodes a JSON object. Empty input yields an empty document.
// Numbers decode as json.Number so integers beyond float64 precision come
// back unchanged.
func ParseMetadata(raw []byte) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Metadata{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode metadata: trailing data")
	}
	if m == nil {
		m = map[string]any{}
	}
	return Metadata(m), nil
}

// String returns the value at key if it is a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Section returns the nested object at key, or nil.
func (m Metadata) Section(key string) Metadata {
	v, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	return Metadata(v)
}

// Summary returns ai_parsed.summary when present.
func (m Metadata) Summary() string {
	return m.Section(MetadataAIParsed).String("summary")
}
