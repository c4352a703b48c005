package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Codec turns values into bytes for a byte-valued store.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type cborCodec struct{}

func (cborCodec) Name() string                       { return "cbor" }
func (cborCodec) Marshal(v any) ([]byte, error)      { return cbor.Marshal(v) }
func (cborCodec) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }

var (
	JSON Codec = jsonCodec{}
	CBOR Codec = cborCodec{}
)

// CodecByName returns the codec called name ("json" or "cbor").
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// Encoded stores typed values in a byte-valued store.
type Encoded[V any] struct {
	raw   Store[string, []byte]
	codec Codec
}

func NewEncoded[V any](raw Store[string, []byte], codec Codec) *Encoded[V] {
	return &Encoded[V]{raw: raw, codec: codec}
}

func (e *Encoded[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var v V
	data, ok, err := e.raw.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := e.codec.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %q as %s: %w", key, e.codec.Name(), err)
	}
	return v, true, nil
}

func (e *Encoded[V]) Set(ctx context.Context, key string, value V) error {
	data, err := e.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q as %s: %w", key, e.codec.Name(), err)
	}
	return e.raw.Set(ctx, key, data)
}
