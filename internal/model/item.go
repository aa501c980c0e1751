package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldDataResponse is the envelope returned by the field data API
type FieldDataResponse struct {
	Payload *FieldDataPayload `json:"payload"`
}

// FieldDataPayload holds the page of items. Items stays raw so the
// decoder can tell a missing list from an empty one.
type FieldDataPayload struct {
	Items json.RawMessage `json:"items"`
}

// RawItem is one survey submission as delivered by the API
type RawItem struct {
	ID                any         `json:"id"`
	SubmittedByUserID any         `json:"submittedByUserId"`
	ClientID          any         `json:"clientId"`
	ApprovalStatus    any         `json:"approvalStatus"`
	ApprovalRemark    any         `json:"approvalRemark"`
	DateCreated       any         `json:"dateCreated"`
	Geometry          *Geometry   `json:"geometry"`
	Properties        *Properties `json:"properties"`
}

// Geometry is the point location of a submission, [longitude, latitude].
// Coordinates are kept as decoded so null or text entries survive to the table.
type Geometry struct {
	Coordinates []any `json:"coordinates"`
}

// Properties is the open, form-driven bag of answers attached to an item.
// Keys keep the order they appear in the source document.
type Properties struct {
	Keys   []string
	Values map[string]any
}

// NewProperties builds a Properties bag from alternating key/value pairs
func NewProperties(kv ...any) *Properties {
	p := &Properties{Values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return p
}

// Set adds or replaces a key
func (p *Properties) Set(key string, value any) {
	if p.Values == nil {
		p.Values = make(map[string]any)
	}
	if _, exists := p.Values[key]; !exists {
		p.Keys = append(p.Keys, key)
	}
	p.Values[key] = value
}

// Len returns the number of keys
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Keys)
}

// UnmarshalJSON decodes an object while keeping key order.
// Numbers are decoded as json.Number.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	p.Keys = nil
	p.Values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: expected key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("properties: value for %q: %w", key, err)
		}
		p.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the bag in key order
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
