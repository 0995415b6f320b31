package trollbox

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype the TrollBox service is spoken in.
const CodecName = "json"

type codec struct{}

func init() {
	encoding.RegisterCodec(codec{})
}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}
