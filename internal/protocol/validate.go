package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://cubecheck.ai/schemas/"

// SchemaFiles maps each message type to its schema file under schemas/.
var SchemaFiles = map[string]string{
	TypeHello:     "hello.schema.json",
	TypeWelcome:   "welcome.schema.json",
	TypeState:     "state.schema.json",
	TypeGesture:   "gesture.schema.json",
	TypeOrbit:     "orbit.schema.json",
	TypeNewPuzzle: "new_puzzle.schema.json",
	TypeCheck:     "check.schema.json",
	TypeResult:    "result.schema.json",
	TypeOutcome:   "outcome.schema.json",
	TypeError:     "error.schema.json",
}

// Validator checks raw messages against the embedded schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}

	v := &Validator{schemas: map[string]*jsonschema.Schema{}}
	for typ, name := range SchemaFiles {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		v.schemas[typ] = s
	}
	return v, nil
}

// Validate checks raw against the schema for its "type" field.
func (v *Validator) Validate(raw []byte) error {
	base, err := DecodeBase(raw)
	if err != nil {
		return err
	}
	s, ok := v.schemas[base.Type]
	if !ok {
		return fmt.Errorf("unknown message type %q", base.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}

// ValidateValue marshals msg and validates it. Servers use it to check outbound messages in tests.
func (v *Validator) ValidateValue(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return v.Validate(b)
}
