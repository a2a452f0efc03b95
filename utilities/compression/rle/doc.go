// Package rle run-length encodes binary bit-planes.
//
// A plane is scanned in row-major order and broken into runs of identical bits.
// Because a plane holds only two values, runs always alternate, so only the
// value of the first pixel is stored. Every run length is written as a
// codeword: a unary prefix selecting one of seven buckets, then a fixed-width
// payload giving the offset of the length within that bucket.
//
//	bucket  prefix    payload bits (codebook type 0)
//	0       0         0
//	1       10        1
//	2       110       2
//	3       1110      3
//	4       11110     4
//	5       111110    10
//	6       1111110   25
//
// The six predefined codebooks differ only in their payload widths, which are
// kept in codebooks.csv. Each favors a different distribution of run lengths;
// [SelectBest] simply tries all of them and keeps the smallest output, which is
// cheap enough for a single plane that no estimator is needed.
//
// Runs longer than a codebook's largest bucket are written as a chain of
// continuation codewords (see [EncodePlane]). Older encoders silently dropped
// such runs, so streams produced here differ from theirs for planes containing
// a run of at least [Codebook.MaxRun] pixels.
package rle
