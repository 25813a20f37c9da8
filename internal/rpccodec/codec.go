// Package rpccodec supplies a JSON-based grpc/encoding.Codec so the
// coordinator's RPC surface can run over real gRPC transport (HTTP/2
// framing, deadlines, codes/status) without a protoc-generated
// protobuf descriptor for message marshaling.
package rpccodec

import "encoding/json"

// Name is registered with google.golang.org/grpc/encoding and selected via
// grpc.CallContentSubtype / grpc.ForceServerCodec.
const Name = "json"

// Codec implements grpc/encoding.Codec by marshaling messages as JSON. Any
// Go struct pointer can be sent as a request or response; there is no
// dependency on generated protobuf message types.
type Codec struct{}

// Marshal returns the JSON encoding of v.
func (Codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal parses the JSON-encoded data into v.
func (Codec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name returns the codec name used in the content-subtype of the RPC.
func (Codec) Name() string {
	return Name
}
