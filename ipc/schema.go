package ipc

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/nstehr/warren/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed worldstate.schema.json
var worldStateSchemaSrc string

var worldStateSchema = jsonschema.MustCompileString("worldstate.schema.json", worldStateSchemaSrc)

// DecodeWorldState validates a world_state payload against the embedded
// schema and decodes it. The returned state is indexed.
func DecodeWorldState(raw json.RawMessage) (*model.WorldState, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse world state: %w", err)
	}
	if err := worldStateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid world state: %w", err)
	}
	var st model.WorldState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode world state: %w", err)
	}
	st.Index()
	return &st, nil
}
