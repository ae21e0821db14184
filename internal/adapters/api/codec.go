package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec lets connect carry plain Go structs as application/json bodies.
// It replaces connect's built-in "json" codec, which only accepts proto messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

// Codec returns the option handlers and clients need to speak the JSON codec.
func Codec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
