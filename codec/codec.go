// Package codec turns a page of items into bytes for the store and back.
// Query[T] uses a Codec[[]T].
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
