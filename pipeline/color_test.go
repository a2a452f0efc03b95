package pipeline_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/pipeline"
	bptesting "github.com/dargueta/bitplane/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBToHSV__KnownColors(t *testing.T) {
	tests := []struct {
		R, G, B byte
		H, S, V byte
		Name    string
	}{
		{0, 0, 0, 0, 0, 0, "black"},
		{255, 255, 255, 0, 0, 255, "white"},
		{128, 128, 128, 0, 0, 128, "gray"},
		{255, 0, 0, 0, 255, 255, "red"},
		{0, 255, 0, 85, 255, 255, "green"},
		{0, 0, 255, 170, 255, 255, "blue"},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				h, s, v := pipeline.RGBToHSV(test.R, test.G, test.B)
				assert.Equal(t, []byte{test.H, test.S, test.V}, []byte{h, s, v})

				r, g, b := pipeline.HSVToRGB(h, s, v)
				assert.Equal(t, []byte{test.R, test.G, test.B}, []byte{r, g, b})
			},
		)
	}
}

func TestHSV__RoundTripWithinRounding(t *testing.T) {
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				h, s, v := pipeline.RGBToHSV(byte(r), byte(g), byte(b))
				r2, g2, b2 := pipeline.HSVToRGB(h, s, v)
				assert.InDelta(t, r, int(r2), 5, "(%d, %d, %d)", r, g, b)
				assert.InDelta(t, g, int(g2), 5, "(%d, %d, %d)", r, g, b)
				assert.InDelta(t, b, int(b2), 5, "(%d, %d, %d)", r, g, b)
			}
		}
	}
}

func TestSplitImage__Gray(t *testing.T) {
	img := bptesting.GradientGrayImage(6, 4)
	channels, err := pipeline.SplitImage(img, bitplane.ConversionHSV)
	require.NoError(t, err)
	require.Len(t, channels, 1, "gray images have one channel whatever the conversion")
	assert.Equal(t, img.Pix, channels[0].Pix)
}

func TestSplitImage__RGB(t *testing.T) {
	img := bptesting.GradientImage(7, 5)
	channels, err := pipeline.SplitImage(img, bitplane.ConversionRGB)
	require.NoError(t, err)
	require.Len(t, channels, 3)

	pixel := img.RGBAAt(3, 2)
	assert.Equal(t, pixel.R, channels[0].At(3, 2))
	assert.Equal(t, pixel.G, channels[1].At(3, 2))
	assert.Equal(t, pixel.B, channels[2].At(3, 2))
}

func TestSplitImage__RejectsTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, A: 0x80})

	_, err := pipeline.SplitImage(img, bitplane.ConversionRGB)
	assert.ErrorIs(t, err, bitplane.ErrInvalidChannelCount)
}

func TestSplitImage__BayerSizes(t *testing.T) {
	channels, err := pipeline.SplitImage(bptesting.GradientImage(5, 3), bitplane.ConversionBayer)
	require.NoError(t, err)
	require.Len(t, channels, 3)

	sizes, err := pipeline.ChannelSizes(3, bitplane.ConversionBayer, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{3, 2}, {3, 3}, {2, 1}}, sizes)
	for i, size := range sizes {
		assert.Equal(t, size.X, channels[i].Width, "channel %d", i)
		assert.Equal(t, size.Y, channels[i].Height, "channel %d", i)
	}
}

func TestBayer__SolidColorSurvives(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{10, 20, 30, 0xFF})
	}

	channels, err := pipeline.SplitImage(img, bitplane.ConversionBayer)
	require.NoError(t, err)
	merged, err := pipeline.MergeChannels(channels, bitplane.ConversionBayer, 8, 6)
	require.NoError(t, err)
	bptesting.AssertImagesEqual(t, img, merged, 0)
}

func TestMergeChannels__Errors(t *testing.T) {
	two := []*pipeline.Channel{pipeline.NewChannel(2, 2), pipeline.NewChannel(2, 2)}
	_, err := pipeline.MergeChannels(two, bitplane.ConversionRGB, 2, 2)
	assert.ErrorIs(t, err, bitplane.ErrInvalidChannelCount)

	wrongSize := []*pipeline.Channel{pipeline.NewChannel(2, 3)}
	_, err = pipeline.MergeChannels(wrongSize, bitplane.ConversionRGB, 2, 2)
	assert.ErrorIs(t, err, bitplane.ErrCorruptStream)
}
