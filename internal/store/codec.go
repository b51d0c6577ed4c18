package store

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// KeyCodec encodes keys so that byte-wise ordering equals key ordering.
type KeyCodec[K any] interface {
	EncodeKey(key K) []byte
	DecodeKey(b []byte) (K, error)
}

// ValueCodec serialises table values.
type ValueCodec[V any] interface {
	EncodeValue(value V) ([]byte, error)
	DecodeValue(b []byte) (V, error)
}

type uint64Key[K ~uint64] struct{}

// Uint64Key returns the big-endian codec for integer keys.
func Uint64Key[K ~uint64]() KeyCodec[K] {
	return uint64Key[K]{}
}

func (uint64Key[K]) EncodeKey(key K) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), uint64(key))
}

func (uint64Key[K]) DecodeKey(b []byte) (K, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("decode key: want 8 bytes, got %d", len(b))
	}
	return K(binary.BigEndian.Uint64(b)), nil
}

type stringKey[K ~string] struct{}

// StringKey returns the raw-bytes codec for string keys.
func StringKey[K ~string]() KeyCodec[K] {
	return stringKey[K]{}
}

func (stringKey[K]) EncodeKey(key K) []byte {
	return []byte(key)
}

func (stringKey[K]) DecodeKey(b []byte) (K, error) {
	return K(b), nil
}

type msgpackValue[V any] struct {
	newValue func() V
}

// Msgpack returns a msgpack codec for concrete value types.
func Msgpack[V any]() ValueCodec[V] {
	return msgpackValue[V]{}
}

// MsgpackFunc returns a msgpack codec that decodes into the value returned by
// newValue. Use it when V is an interface and newValue returns a pointer to
// the concrete type.
func MsgpackFunc[V any](newValue func() V) ValueCodec[V] {
	return msgpackValue[V]{newValue: newValue}
}

func (c msgpackValue[V]) EncodeValue(value V) ([]byte, error) {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}

func (c msgpackValue[V]) DecodeValue(b []byte) (V, error) {
	if c.newValue != nil {
		v := c.newValue()
		if err := msgpack.Unmarshal(b, v); err != nil {
			var zero V
			return zero, fmt.Errorf("decode value: %w", err)
		}
		return v, nil
	}

	var v V
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
