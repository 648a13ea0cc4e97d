package agencyv1

import (
	"encoding/json"
	"fmt"
)

// JSONCodec serializes agency.v1 messages as plain JSON. It replaces
// connect's protobuf-backed "json" codec, since these messages are plain Go
// structs rather than generated protobuf types.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", message, err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("unmarshal %T: %w", message, err)
	}
	return nil
}
