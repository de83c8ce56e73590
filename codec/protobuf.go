package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// ProtobufList encodes a page of protobuf messages as a sequence of
// varint length-prefixed message bodies.
type ProtobufList[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *pb.Contact { return &pb.Contact{} })
}

func NewProtobufList[T proto.Message](ctor func() T) ProtobufList[T] {
	return ProtobufList[T]{new: ctor}
}

func (c ProtobufList[T]) Encode(items []T) ([]byte, error) {
	var out []byte
	for i, m := range items {
		b, err := proto.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("protobuf item %d: %w", i, err)
		}
		out = protowire.AppendBytes(out, b)
	}
	return out, nil
}

func (c ProtobufList[T]) Decode(b []byte) ([]T, error) {
	var items []T
	for len(b) > 0 {
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("protobuf item %d: %w", len(items), protowire.ParseError(n))
		}
		m := c.new()
		if err := proto.Unmarshal(v, m); err != nil {
			return nil, fmt.Errorf("protobuf item %d: %w", len(items), err)
		}
		items = append(items, m)
		b = b[n:]
	}
	return items, nil
}
