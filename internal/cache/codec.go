package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Payload header bytes
const (
	codecPlain  byte = 'j'
	codecSnappy byte = 's'
)

// ErrCorruptPayload is returned for cached bytes that were not written by Encode
var ErrCorruptPayload = errors.New("corrupt cache payload")

// Encode marshals v to JSON, snappy-compressing it when compress is set.
// A one-byte header records the choice so Decode works either way.
func Encode(v any, compress bool) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache payload: %w", err)
	}

	if !compress {
		return append([]byte{codecPlain}, data...), nil
	}
	return append([]byte{codecSnappy}, snappy.Encode(nil, data)...), nil
}

// Decode reverses Encode into v
func Decode(payload []byte, v any) error {
	if len(payload) == 0 {
		return ErrCorruptPayload
	}

	data := payload[1:]
	switch payload[0] {
	case codecPlain:
	case codecSnappy:
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
		}
		data = decoded
	default:
		return ErrCorruptPayload
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return nil
}
