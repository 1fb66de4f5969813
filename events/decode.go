package events

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

const (
	schemaBase      = "https://towns.schemas.local/events/"
	eventSchemaURL  = schemaBase + "event.schema.json"
	eventListSchURL = schemaBase + "event_list.schema.json"
)

var (
	schemaOnce  sync.Once
	eventSchema *jsonschema.Schema
	listSchema  *jsonschema.Schema
	schemaErr   error
)

func loadSchemas() error {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		for _, name := range []string{"event.schema.json", "event_list.schema.json"} {
			b, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				schemaErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
				schemaErr = fmt.Errorf("load schema %s: %w", name, err)
				return
			}
		}
		if eventSchema, schemaErr = c.Compile(eventSchemaURL); schemaErr != nil {
			return
		}
		listSchema, schemaErr = c.Compile(eventListSchURL)
	})
	return schemaErr
}

func validateAgainst(schema *jsonschema.Schema, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return WrapError(KindEncoding, "", "parse event JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return WrapError(KindBadEvent, "", "event JSON does not match schema", err)
	}
	return nil
}

// DecodeEvent parses a single FullEvent document. The document is validated
// structurally first; hash and signature are not checked (see CheckEvent).
func DecodeEvent(data []byte) (*FullEvent, error) {
	if err := loadSchemas(); err != nil {
		return nil, err
	}
	if err := validateAgainst(eventSchema, data); err != nil {
		return nil, err
	}
	var e FullEvent
	if err := json.Unmarshal(data, &e); err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, WrapError(KindEncoding, "", "decode event", err)
	}
	return &e, nil
}

// DecodeEvents parses a JSON array of FullEvent documents.
func DecodeEvents(data []byte) ([]*FullEvent, error) {
	if err := loadSchemas(); err != nil {
		return nil, err
	}
	if err := validateAgainst(listSchema, data); err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, WrapError(KindEncoding, "", "decode event list", err)
	}
	out := make([]*FullEvent, 0, len(raw))
	for i, r := range raw {
		var e FullEvent
		if err := json.Unmarshal(r, &e); err != nil {
			if KindOf(err) == "" {
				err = WrapError(KindEncoding, "", "decode event", err)
			}
			return nil, AtIndex(err, i, "")
		}
		out = append(out, &e)
	}
	return out, nil
}

// EncodeEvent returns the canonical JSON encoding of event.
func EncodeEvent(event *FullEvent) ([]byte, error) {
	if event == nil {
		return nil, NewError(KindBadEvent, "", "nil event")
	}
	return encodeCanonical(event)
}

// EncodeEvents returns the canonical JSON encoding of a list of events.
func EncodeEvents(events []*FullEvent) ([]byte, error) {
	if events == nil {
		events = []*FullEvent{}
	}
	for i, e := range events {
		if e == nil {
			return nil, AtIndex(NewError(KindBadEvent, "", "nil event"), i, "")
		}
	}
	return encodeCanonical(events)
}

func encodeCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, WrapError(KindEncoding, "", "encode event", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, WrapError(KindEncoding, "", "canonicalize event", err)
	}
	return canon, nil
}
