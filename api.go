package bitplane

// BitSource is a read-only, index-addressable sequence of bits. The bitmap type
// used for bit-planes satisfies it.
type BitSource interface {
	Get(i int) bool
}

// Codec is the interface for the byte-level post-processing stages applied to
// serialized plane buffers.
//
// Decompress must reproduce exactly the bytes that were passed to Compress.
// Both methods must be safe to call from multiple goroutines at once.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
