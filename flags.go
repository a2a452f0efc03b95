package bitplane

import (
	"fmt"
	"strings"
)

// Container flag bits.
const (
	FlagGray = 1 << iota // channels were Gray-coded before plane extraction
	FlagXOR              // planes were XOR-filtered against their left neighbor
)

// BitsPerChannel is the number of bit-planes stored for every channel.
const BitsPerChannel = 8

// ColorConversion selects how a color image is split into channels.
type ColorConversion uint8

const (
	ConversionRGB   ColorConversion = 1
	ConversionHSV   ColorConversion = 2
	ConversionBayer ColorConversion = 3
)

var conversionNames = map[ColorConversion]string{
	ConversionRGB:   "RGB",
	ConversionHSV:   "HSV",
	ConversionBayer: "Bayer",
}

func (c ColorConversion) String() string {
	name, ok := conversionNames[c]
	if ok {
		return name
	}
	return fmt.Sprintf("ColorConversion(%d)", uint8(c))
}

// Valid reports whether c is one of the known conversions.
func (c ColorConversion) Valid() bool {
	_, ok := conversionNames[c]
	return ok
}

// ParseColorConversion accepts the names printed by [ColorConversion.String],
// case-insensitively.
func ParseColorConversion(name string) (ColorConversion, error) {
	for conversion, conversionName := range conversionNames {
		if strings.EqualFold(name, conversionName) {
			return conversion, nil
		}
	}
	return 0, ErrInvalidArgument.WithMessage(
		fmt.Sprintf("unknown color conversion %q; expected RGB, HSV or Bayer", name))
}
