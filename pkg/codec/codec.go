// Package codec provides the value encoders used by persistent backends.
// A codec must round-trip exactly: Decode(Encode(v)) == v for every value a
// caller enqueues.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Codec encodes queue entries into the bytes written to a backend and decodes
// them back on dequeue.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// Gob is the default codec. It uses the gob binary encoding, which is compact
// and handles any gob-encodable Go value.
type Gob[T any] struct{}

func (Gob[T]) Encode(value T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Gob[T]) Decode(data []byte) (T, error) {
	var value T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value)
	return value, err
}

// JSON encodes entries as JSON. Useful when the on-disk files should stay
// readable by other tools.
type JSON[T any] struct{}

func (JSON[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (JSON[T]) Decode(data []byte) (T, error) {
	var value T
	err := json.Unmarshal(data, &value)
	return value, err
}
