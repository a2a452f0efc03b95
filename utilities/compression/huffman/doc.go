// Package huffman is a canonical Huffman coder for byte streams.
//
// A compressed stream starts with the code table and is followed by the code
// of every input symbol, then the code of a sentinel symbol marking the end.
// Codes are canonical, so the table only stores each symbol and the length of
// its code. All fields are packed most significant bit first:
//
//	flags            8 bits    see [FlagWideLengths] and friends
//	trailing byte    8 bits    only with [FlagTrailingByte]
//	symbol count-1   8/16 bits absent with [FlagEmptyTable]
//	sentinel index   32 bits   position of the sentinel in the table
//	sentinel length  8/16 bits
//	entries          (symbol 8/16 bits, length 8/16 bits) per symbol
//	data             codes, then the sentinel's code, zero-padded to a byte
//
// Entries are in canonical order (length, then symbol) with the sentinel left
// out; its position is given by the sentinel index instead.
package huffman
