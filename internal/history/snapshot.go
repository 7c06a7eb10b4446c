package history

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is an immutable serialized copy of a value. Two snapshots are
// equal when their encodings are; map keys are encoded in sorted order so
// equal values always encode identically.
type Snapshot struct {
	data []byte
	sum  uint64
}

// Capture serializes v using its json struct tags
func Capture(v any) (Snapshot, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data := buf.Bytes()
	return Snapshot{data: data, sum: xxhash.Sum64(data)}, nil
}

// Decode deserializes the snapshot into v
func (s Snapshot) Decode(v any) error {
	if s.IsZero() {
		return fmt.Errorf("failed to decode snapshot: empty snapshot")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(s.data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return nil
}

// Equal reports structural equality
func (s Snapshot) Equal(o Snapshot) bool {
	return s.sum == o.sum && bytes.Equal(s.data, o.data)
}

// IsZero reports whether the snapshot was never captured
func (s Snapshot) IsZero() bool {
	return len(s.data) == 0
}

// Size is the encoded size in bytes
func (s Snapshot) Size() int {
	return len(s.data)
}

// Sum is the xxhash of the encoding
func (s Snapshot) Sum() uint64 {
	return s.sum
}
