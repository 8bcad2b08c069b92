package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StepKind classifies a raw workflow step into one of three decodable
// shapes. StepKeyedBlock covers both "configured node" and "inline block"
// steps from the format, since telling them apart requires a registry
// lookup the decoder does not have; pkg/parser finishes that
// classification once it knows which node types exist.
type StepKind int

const (
	StepBareNode StepKind = iota
	StepKeyedBlock
	StepStateSetter
)

func (k StepKind) String() string {
	switch k {
	case StepBareNode:
		return "bare_node"
	case StepKeyedBlock:
		return "keyed_block"
	case StepStateSetter:
		return "state_setter"
	default:
		return "unknown"
	}
}

// OrderedEntry is one key/value pair from a decoded JSON object, in the
// order it appeared on the wire.
type OrderedEntry struct {
	Key   string
	Value json.RawMessage
}

// OrderedObject is a JSON object decoded with key order preserved. The
// engine's edge-resolution rule ("first declared edge wins by declaration
// order in configuration keys") depends on this order surviving decode,
// which a plain map[string]interface{} does not guarantee.
type OrderedObject struct {
	Entries []OrderedEntry
}

// Get returns the raw value for key and whether it was present.
func (o *OrderedObject) Get(key string) (json.RawMessage, bool) {
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the object's keys in declaration order.
func (o *OrderedObject) Keys() []string {
	keys := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		keys[i] = e.Key
	}
	return keys
}

// UnmarshalJSON decodes a JSON object while recording key order.
func (o *OrderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	o.Entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding value for key %q: %w", key, err)
		}
		o.Entries = append(o.Entries, OrderedEntry{Key: key, Value: raw})
	}
	return nil
}

// MarshalJSON re-emits the object in its recorded key order.
func (o OrderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		if len(e.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(e.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

const loopSuffix = "..."

// IsEdgeKey reports whether key is an edge-routing entry ("<name>?").
func IsEdgeKey(key string) bool {
	return strings.HasSuffix(key, "?") && len(key) > 1
}

// EdgeName strips the trailing "?" from an edge key.
func EdgeName(key string) string {
	return strings.TrimSuffix(key, "?")
}

// RawStep is a workflow step decoded from JSON but not yet resolved against
// a node registry.
type RawStep struct {
	Kind StepKind

	// StepBareNode
	NodeType string

	// StepKeyedBlock: OuterKey names a node type or (if unregistered) an
	// inline-block container; Body holds the nested config/edge object.
	OuterKey string
	IsLoop   bool
	Body     *OrderedObject

	// StepStateSetter
	Path  string
	Value json.RawMessage
}

// UnmarshalJSON classifies data as one of the three decodable step shapes.
func (s *RawStep) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("decoding bare node step: %w", err)
		}
		s.Kind = StepBareNode
		s.NodeType = name
		return nil
	}

	var obj OrderedObject
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decoding step object: %w", err)
	}
	if len(obj.Entries) != 1 {
		return fmt.Errorf("step object must have exactly one key, found %d", len(obj.Entries))
	}
	key := obj.Entries[0].Key
	value := obj.Entries[0].Value

	if strings.HasPrefix(key, "$.") {
		s.Kind = StepStateSetter
		s.Path = strings.TrimPrefix(key, "$.")
		s.Value = value
		return nil
	}

	s.Kind = StepKeyedBlock
	outerKey := key
	if strings.HasSuffix(outerKey, loopSuffix) {
		s.IsLoop = true
		outerKey = strings.TrimSuffix(outerKey, loopSuffix)
	}
	s.OuterKey = outerKey

	var body OrderedObject
	if err := json.Unmarshal(value, &body); err != nil {
		return fmt.Errorf("decoding body of step %q: %w", key, err)
	}
	s.Body = &body
	return nil
}

// MarshalJSON re-encodes the step in its original shape, used for the
// parser round-trip property (Parser(stringify(plan)) = plan).
func (s RawStep) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StepBareNode:
		return json.Marshal(s.NodeType)
	case StepStateSetter:
		outer := OrderedObject{Entries: []OrderedEntry{{Key: "$." + s.Path, Value: s.Value}}}
		return outer.MarshalJSON()
	case StepKeyedBlock:
		key := s.OuterKey
		if s.IsLoop {
			key += loopSuffix
		}
		var bodyBytes json.RawMessage
		if s.Body != nil {
			b, err := s.Body.MarshalJSON()
			if err != nil {
				return nil, err
			}
			bodyBytes = b
		} else {
			bodyBytes = json.RawMessage("{}")
		}
		outer := OrderedObject{Entries: []OrderedEntry{{Key: key, Value: bodyBytes}}}
		return outer.MarshalJSON()
	default:
		return nil, fmt.Errorf("cannot marshal step with unknown kind %v", s.Kind)
	}
}
