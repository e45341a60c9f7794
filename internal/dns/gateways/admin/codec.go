package admin

import "encoding/json"

// jsonCodec implements grpc's encoding.Codec over plain JSON so the admin
// service can run without a protoc-generated message set. Registered via
// grpc.ForceServerCodec, a documented extension point for non-protobuf
// payloads.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
