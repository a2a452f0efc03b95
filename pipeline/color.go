package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/dargueta/bitplane"
)

func isGrayscale(img image.Image) bool {
	model := img.ColorModel()
	return model == color.GrayModel || model == color.Gray16Model
}

// checkOpaque fails if any pixel in the image is even partly transparent. The
// container has nowhere to store alpha.
func checkOpaque(img image.Image) error {
	if opaque, ok := img.(interface{ Opaque() bool }); ok {
		if opaque.Opaque() {
			return nil
		}
		return bitplane.ErrInvalidChannelCount.WithMessage(
			"images with transparency aren't supported")
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return bitplane.ErrInvalidChannelCount.WithMessage(
					fmt.Sprintf("pixel (%d, %d) isn't opaque", x, y))
			}
		}
	}
	return nil
}

// SplitImage breaks an image into 8-bit channels. Grayscale images give one
// channel; color images give three, laid out according to `conversion`.
func SplitImage(img image.Image, conversion bitplane.ColorConversion) ([]*Channel, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if isGrayscale(img) {
		gray := NewChannel(width, height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				value := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y))
				gray.Set(x, y, value.(color.Gray).Y)
			}
		}
		return []*Channel{gray}, nil
	}

	if err := checkOpaque(img); err != nil {
		return nil, err
	}

	r, g, b := NewChannel(width, height), NewChannel(width, height), NewChannel(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r.Set(x, y, pixel.R)
			g.Set(x, y, pixel.G)
			b.Set(x, y, pixel.B)
		}
	}

	switch conversion {
	case bitplane.ConversionRGB:
		return []*Channel{r, g, b}, nil
	case bitplane.ConversionHSV:
		h, s, v := NewChannel(width, height), NewChannel(width, height), NewChannel(width, height)
		for i := range r.Pix {
			h.Pix[i], s.Pix[i], v.Pix[i] = RGBToHSV(r.Pix[i], g.Pix[i], b.Pix[i])
		}
		return []*Channel{h, s, v}, nil
	case bitplane.ConversionBayer:
		return bayerSplit(r, g, b), nil
	default:
		return nil, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("invalid color conversion %d", uint8(conversion)))
	}
}

// ChannelSizes gives the dimensions of each channel [SplitImage] produces for
// an image of the given size.
func ChannelSizes(
	channels int, conversion bitplane.ColorConversion, width, height int,
) ([]image.Point, error) {
	switch {
	case channels == 1:
		return []image.Point{{width, height}}, nil
	case channels == 3 && conversion == bitplane.ConversionBayer:
		return []image.Point{
			{(width + 1) / 2, (height + 1) / 2},
			{(width + 1) / 2, height},
			{width / 2, height / 2},
		}, nil
	case channels == 3 && conversion.Valid():
		return []image.Point{{width, height}, {width, height}, {width, height}}, nil
	}
	return nil, bitplane.ErrInvalidChannelCount.WithMessage(
		fmt.Sprintf("%d channels with conversion %s", channels, conversion))
}

// MergeChannels reverses [SplitImage]. Bayer channels are demosaiced, so that
// conversion doesn't give back the original image.
func MergeChannels(
	channels []*Channel, conversion bitplane.ColorConversion, width, height int,
) (image.Image, error) {
	sizes, err := ChannelSizes(len(channels), conversion, width, height)
	if err != nil {
		return nil, err
	}
	for i, size := range sizes {
		if channels[i].Width != size.X || channels[i].Height != size.Y {
			return nil, bitplane.ErrCorruptStream.WithMessage(
				fmt.Sprintf(
					"channel %d is %dx%d, expected %dx%d",
					i,
					channels[i].Width,
					channels[i].Height,
					size.X,
					size.Y))
		}
	}

	if len(channels) == 1 {
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, channels[0].Pix)
		return gray, nil
	}

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	setPixel := func(x, y int, r, g, b byte) {
		offset := result.PixOffset(x, y)
		result.Pix[offset] = r
		result.Pix[offset+1] = g
		result.Pix[offset+2] = b
		result.Pix[offset+3] = 0xFF
	}

	switch conversion {
	case bitplane.ConversionBayer:
		bayerMerge(channels, width, height, setPixel)
	case bitplane.ConversionHSV:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b := HSVToRGB(channels[0].At(x, y), channels[1].At(x, y), channels[2].At(x, y))
				setPixel(x, y, r, g, b)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				setPixel(x, y, channels[0].At(x, y), channels[1].At(x, y), channels[2].At(x, y))
			}
		}
	}
	return result, nil
}

func roundToByte(value float64) byte {
	return byte(math.Max(0, math.Min(255, math.Round(value))))
}

// RGBToHSV converts a color to hue, saturation and value. All three use the
// full 0-255 range; a hue of 255 is a full turn.
func RGBToHSV(r, g, b byte) (h, s, v byte) {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	v = maxC
	if maxC == 0 {
		return 0, 0, 0
	}

	delta := float64(maxC) - float64(minC)
	s = roundToByte(255 * delta / float64(maxC))
	if delta == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxC {
	case r:
		hue = 60 * (float64(g) - float64(b)) / delta
	case g:
		hue = 120 + 60*(float64(b)-float64(r))/delta
	default:
		hue = 240 + 60*(float64(r)-float64(g))/delta
	}
	if hue < 0 {
		hue += 360
	}

	h = byte(int(math.Round(hue*255/360)) % 256)
	return h, s, v
}

// HSVToRGB reverses [RGBToHSV], give or take rounding.
func HSVToRGB(h, s, v byte) (r, g, b byte) {
	value := float64(v)
	chroma := value * float64(s) / 255
	sector := float64(h) * 360 / 255 / 60
	x := chroma * (1 - math.Abs(math.Mod(sector, 2)-1))

	var rf, gf, bf float64
	switch int(sector) % 6 {
	case 0:
		rf, gf, bf = chroma, x, 0
	case 1:
		rf, gf, bf = x, chroma, 0
	case 2:
		rf, gf, bf = 0, chroma, x
	case 3:
		rf, gf, bf = 0, x, chroma
	case 4:
		rf, gf, bf = x, 0, chroma
	default:
		rf, gf, bf = chroma, 0, x
	}

	m := value - chroma
	return roundToByte(rf + m), roundToByte(gf + m), roundToByte(bf + m)
}

// bayerSplit samples an RGGB color filter mosaic out of the image: red at even
// rows and columns, blue at odd rows and columns, green everywhere else. The
// samples of each color are packed into their own channel.
func bayerSplit(r, g, b *Channel) []*Channel {
	width, height := r.Width, r.Height
	red := NewChannel((width+1)/2, (height+1)/2)
	green := NewChannel((width+1)/2, height)
	blue := NewChannel(width/2, height/2)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case y%2 == 1 && x%2 == 1:
				blue.Set(x/2, y/2, b.At(x, y))
			case y%2 == 1 || x%2 == 1:
				green.Set(x/2, y, g.At(x, y))
			default:
				red.Set(x/2, y/2, r.At(x, y))
			}
		}
	}
	return []*Channel{red, green, blue}
}

// bayerMerge rebuilds a color image from the mosaic channels. Every 2x2 cell
// gets the cell's red sample, the mean of its green samples, and its blue
// sample. Cells cut off by an odd width or height borrow green for blue, and
// red for green if there's no green either.
func bayerMerge(
	channels []*Channel, width, height int, setPixel func(x, y int, r, g, b byte),
) {
	red, green, blue := channels[0], channels[1], channels[2]

	for cellY := 0; cellY < (height+1)/2; cellY++ {
		for cellX := 0; cellX < (width+1)/2; cellX++ {
			x0, y0 := 2*cellX, 2*cellY
			hasRight := x0+1 < width
			hasBelow := y0+1 < height

			r := red.At(cellX, cellY)

			greenSum, greenCount := 0, 0
			if hasRight {
				greenSum += int(green.At(cellX, y0))
				greenCount++
			}
			if hasBelow {
				greenSum += int(green.At(cellX, y0+1))
				greenCount++
			}
			g := r
			if greenCount > 0 {
				g = byte((greenSum + greenCount/2) / greenCount)
			}

			b := g
			if hasRight && hasBelow {
				b = blue.At(cellX, cellY)
			}

			for y := y0; y < y0+2 && y < height; y++ {
				for x := x0; x < x0+2 && x < width; x++ {
					setPixel(x, y, r, g, b)
				}
			}
		}
	}
}
