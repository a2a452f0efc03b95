// Package bitstream provides the bit-granular readers and writers shared by the
// run-length and Huffman codecs.
//
// Two flavors exist. [WordWriter] and [WordReader] pack fields into 32-bit
// words through a 64-bit accumulator and lookahead window; the run-length codec
// stores its codewords this way so that a decoder can peek a whole codeword
// (at most 32 bits) before deciding how many bits it consumes. [Writer] and
// [Reader] are byte oriented and are used for the Huffman stream, where a
// decoder walks the code tree one bit at a time.
//
// Both flavors write the most significant bit of a field first, and both report
// a read past the end of the data as [bitplane.ErrUnexpectedEOF], annotated
// with the bit offset at which it happened. Decoders in this module loop until
// they see an end marker rather than until they run out of data, so running out
// of data is always an error.
package bitstream
