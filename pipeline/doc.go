// Package pipeline turns images into containers of run-length encoded
// bit-planes and back.
//
// Encoding an image goes through these stages, and decoding undoes them in the
// opposite order:
//
//  1. The image is split into 8-bit channels: one for grayscale images, three
//     for color images (RGB, HSV, or an RGGB Bayer mosaic).
//  2. Optionally, every channel is Gray-coded.
//  3. Each channel is sliced into 8 bit-planes.
//  4. Optionally, every plane is XOR-filtered against its left neighbor.
//  5. Each plane is run-length encoded with whichever codebook gives the
//     smallest output.
//  6. Optionally, every encoded plane goes through a second compression pass.
//
// Planes are independent of each other, so they're encoded and decoded on
// several goroutines. The output doesn't depend on how many.
//
// Only RGB and HSV round-trip exactly (HSV give or take rounding). The Bayer
// conversion keeps one color sample per pixel, like a camera sensor, and
// decoding fills in the rest.
package pipeline
