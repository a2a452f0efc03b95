package testing

import (
	"crypto/rand"
	"image"
	"image/color"
	"io"
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// CreateRandomBytes returns `size` random bytes. It is guaranteed to either
// return a valid slice or fail the test and abort.
func CreateRandomBytes(size int, t *testing.T) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to generate %d random bytes", size)
	return data
}

// GradientImage creates an opaque color image whose channels change slowly
// from pixel to pixel, the kind of input bit-plane coding does well on.
func GradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(
				x,
				y,
				color.RGBA{
					R: uint8(x * 255 / max(width-1, 1)),
					G: uint8(y * 255 / max(height-1, 1)),
					B: uint8((x + y) / 4),
					A: 0xFF,
				})
		}
	}
	return img
}

// GradientGrayImage is the grayscale version of [GradientImage].
func GradientGrayImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*3 + y) / 2)})
		}
	}
	return img
}

// NoiseImage creates an opaque color image of random pixels. The same seed
// always gives the same image.
func NoiseImage(width, height int, seed int64) *image.RGBA {
	rng := mathrand.New(mathrand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

// LoadContainer wraps encoded data in a seekable stream. Writes to the stream
// do not affect `data`, and it can't grow past the original size.
func LoadContainer(t *testing.T, data []byte) io.ReadWriteSeeker {
	require.Greater(t, len(data), 0, "container is empty")
	copied := make([]byte, len(data))
	copy(copied, data)
	return bytesextra.NewReadWriteSeeker(copied)
}

// AssertImagesEqual checks that two images are the same size and that no
// channel of any pixel differs by more than `tolerance`. Only the first
// mismatch is reported.
func AssertImagesEqual(t *testing.T, expected, actual image.Image, tolerance int) bool {
	if !assert.Equal(t, expected.Bounds().Size(), actual.Bounds().Size(), "image sizes differ") {
		return false
	}

	eb, ab := expected.Bounds(), actual.Bounds()
	for y := 0; y < eb.Dy(); y++ {
		for x := 0; x < eb.Dx(); x++ {
			e := color.NRGBAModel.Convert(expected.At(eb.Min.X+x, eb.Min.Y+y)).(color.NRGBA)
			a := color.NRGBAModel.Convert(actual.At(ab.Min.X+x, ab.Min.Y+y)).(color.NRGBA)
			if channelDiff(e.R, a.R) > tolerance ||
				channelDiff(e.G, a.G) > tolerance ||
				channelDiff(e.B, a.B) > tolerance {
				return assert.Failf(
					t,
					"images differ",
					"pixel (%d, %d): expected %v, got %v (tolerance %d)",
					x,
					y,
					e,
					a,
					tolerance)
			}
		}
	}
	return true
}

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
