// Package compression provides the general-purpose compressors that can be run
// over encoded bit-planes as a second pass.
//
// Run-length encoding leaves a plane as a stream of variable-length codewords
// packed into 32-bit words. Some of that is still redundant: codewords for
// common run lengths repeat, and the padding at the end of a plane is always
// zero. Each [Method] is a [bitplane.Codec] over whole plane buffers; which one
// wins depends on the image, so the choice is recorded in the container header
// and applied to every plane in it.
//
// [MethodHuffman] is this project's own coder (see the huffman subpackage). The
// others wrap compress/gzip, github.com/klauspost/compress/zstd and
// github.com/golang/snappy.
package compression
