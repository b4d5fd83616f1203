package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"cubecheck.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("sample: %v", err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile("hello.schema.json"), `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"bot1",
	  "viewport":{"w":800,"h":600}
	}`)

	validate(compile("welcome.schema.json"), `{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "resume_token":"resume_S1_1700000000",
	  "puzzle_params":{"grid_size":4,"min_cubes":2,"max_cubes":4,"removals":2,"decoys":2,"tolerance":0.05,"hit_history":10}
	}`)

	validate(compile("state.schema.json"), `{
	  "type":"STATE",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "puzzle":1,
	  "seq":3,
	  "target_size":3,
	  "cubes":[{"cell":[1,0,0],"handle":"c1"},{"cell":[1,1,0],"handle":"c2"}],
	  "occupancy":"AAEBAQA=",
	  "preview":[1,2,0],
	  "silhouettes":{"top":[[true],[true]],"front":[[true,false],[true,true]],"left":[[true,true]]},
	  "camera":{"theta":3.14,"phi":1.57,"radius":10,"fov_deg":60,"position":[12,3,0],"look_direction":[-10,-3,2]},
	  "orbiting":false,
	  "checks":0,
	  "solved":false
	}`)

	validate(compile("gesture.schema.json"), `{
	  "type":"GESTURE",
	  "protocol_version":"1.0",
	  "kind":"PRIMARY",
	  "ray":{"origin":[1.5,5,2.5],"dir":[0,-1,0]},
	  "mods":{}
	}`)

	validate(compile("gesture.schema.json"), `{
	  "type":"GESTURE",
	  "protocol_version":"1.0",
	  "kind":"HOVER",
	  "cursor":{"x":400,"y":300}
	}`)

	validate(compile("orbit.schema.json"), `{"type":"ORBIT","protocol_version":"1.0","phase":"MOVE","x":12,"y":-4}`)
	validate(compile("check.schema.json"), `{"type":"CHECK","protocol_version":"1.0"}`)
	validate(compile("new_puzzle.schema.json"), `{"type":"NEW_PUZZLE","protocol_version":"1.0"}`)
	validate(compile("result.schema.json"), `{"type":"RESULT","protocol_version":"1.0","puzzle":1,"solved":true,"checks":2}`)

	validate(compile("outcome.schema.json"), `{
	  "type":"OUTCOME",
	  "protocol_version":"1.0",
	  "kind":"SECONDARY",
	  "removed":{"cell":[1,0,1],"handle":"c3"},
	  "preview":[1,0,0],
	  "hit":{"cell":[1,0,1],"point":[1.5,1,1.5],"t":8,"face":"top"}
	}`)

	validate(compile("error.schema.json"), `{"type":"ERROR","protocol_version":"1.0","code":"E_BAD_REQUEST","message":"bad kind"}`)
}

func TestValidator_RejectsBadMessages(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	cases := map[string]string{
		"unknown type":      `{"type":"TELEPORT","protocol_version":"1.0"}`,
		"ray and cursor":    `{"type":"GESTURE","protocol_version":"1.0","kind":"PRIMARY","ray":{"origin":[0,0,0],"dir":[0,-1,0]},"cursor":{"x":1,"y":1}}`,
		"neither":           `{"type":"GESTURE","protocol_version":"1.0","kind":"PRIMARY"}`,
		"bad kind":          `{"type":"GESTURE","protocol_version":"1.0","kind":"TERTIARY","cursor":{"x":1,"y":1}}`,
		"short vector":      `{"type":"GESTURE","protocol_version":"1.0","kind":"HOVER","ray":{"origin":[0,0],"dir":[0,-1,0]}}`,
		"orbit phase":       `{"type":"ORBIT","protocol_version":"1.0","phase":"SPIN","x":0,"y":0}`,
		"extra check field": `{"type":"CHECK","protocol_version":"1.0","force":true}`,
		"missing name":      `{"type":"HELLO","protocol_version":"1.0"}`,
		"not json":          `{"type":`,
	}
	for name, raw := range cases {
		if err := v.Validate([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidator_AcceptsOutbound(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	msgs := []any{
		protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, Puzzle: 1, Solved: false, Checks: 1},
		protocol.ErrorMsg{Type: protocol.TypeError, ProtocolVersion: protocol.Version, Code: protocol.ErrNoSession},
		protocol.CheckMsg{Type: protocol.TypeCheck, ProtocolVersion: protocol.Version},
		protocol.OrbitMsg{Type: protocol.TypeOrbit, ProtocolVersion: protocol.Version, Phase: protocol.OrbitBegin},
	}
	for _, m := range msgs {
		if err := v.ValidateValue(m); err != nil {
			t.Fatalf("%T: %v", m, err)
		}
	}
}
