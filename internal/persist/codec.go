package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Codec converts slot values to and from their durable form.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// ArrayCodec is JSONCodec that also rejects documents that are not JSON
// arrays, so a stored object or scalar never hydrates a list slot.
type ArrayCodec[T any] struct {
	JSONCodec[T]
}

func (c ArrayCodec[T]) Decode(data []byte) (T, error) {
	var probe []json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		var zero T
		return zero, fmt.Errorf("expected a JSON array: %w", err)
	}
	if probe == nil {
		var zero T
		return zero, fmt.Errorf("expected a JSON array, got null")
	}
	return c.JSONCodec.Decode(data)
}

// ErrEmptyPayload is returned by StringCodec for blank bare text, which
// older clients wrote for "no value".
var ErrEmptyPayload = errors.New("empty payload")

// StringCodec stores strings as JSON but also accepts bare text, the format
// older clients wrote. Blank bare text does not decode.
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) {
	return json.Marshal(v)
}

func (StringCodec) Decode(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyPayload
	}
	return string(data), nil
}
