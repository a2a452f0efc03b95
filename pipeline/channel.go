package pipeline

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/bitplane"
)

// Channel is a single 8-bit component of an image, stored row by row.
type Channel struct {
	Width  int
	Height int
	Pix    []byte
}

func NewChannel(width, height int) *Channel {
	return &Channel{Width: width, Height: height, Pix: make([]byte, width*height)}
}

func (c *Channel) At(x, y int) byte {
	return c.Pix[y*c.Width+x]
}

func (c *Channel) Set(x, y int, value byte) {
	c.Pix[y*c.Width+x] = value
}

// GrayEncode maps a binary value to its reflected Gray code, in which adjacent
// values differ in exactly one bit.
func GrayEncode(value byte) byte {
	return value ^ value>>1
}

// GrayDecode reverses [GrayEncode].
func GrayDecode(value byte) byte {
	value ^= value >> 1
	value ^= value >> 2
	value ^= value >> 4
	return value
}

// ToGray returns a copy of the channel with every pixel Gray-coded.
func (c *Channel) ToGray() *Channel {
	return c.mapPixels(GrayEncode)
}

// FromGray returns a copy of the channel with every pixel Gray-decoded.
func (c *Channel) FromGray() *Channel {
	return c.mapPixels(GrayDecode)
}

func (c *Channel) mapPixels(transform func(byte) byte) *Channel {
	result := NewChannel(c.Width, c.Height)
	for i, value := range c.Pix {
		result.Pix[i] = transform(value)
	}
	return result
}

// Plane extracts bit number `bit` (0 is the least significant) of every pixel.
func (c *Channel) Plane(bit uint) *Plane {
	plane := NewPlane(c.Width, c.Height)
	mask := byte(1) << bit
	for i, value := range c.Pix {
		if value&mask != 0 {
			plane.Bits.Set(i, true)
		}
	}
	return plane
}

// SetPlane overwrites bit number `bit` of every pixel with the plane's values.
func (c *Channel) SetPlane(bit uint, plane *Plane) error {
	if plane.Width != c.Width || plane.Height != c.Height {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"plane %d is %dx%d but channel is %dx%d",
				bit,
				plane.Width,
				plane.Height,
				c.Width,
				c.Height))
	}

	mask := byte(1) << bit
	for i := range c.Pix {
		if plane.Bits.Get(i) {
			c.Pix[i] |= mask
		} else {
			c.Pix[i] &^= mask
		}
	}
	return nil
}

// Plane is one bit of every pixel in a channel. It implements
// [bitplane.BitSource].
type Plane struct {
	Width  int
	Height int
	Bits   bitmap.Bitmap
}

func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Bits: bitmap.New(width * height)}
}

func (p *Plane) Get(i int) bool {
	return p.Bits.Get(i)
}

// XOR replaces every pixel but the first in each row with the exclusive-or of
// itself and its left neighbor. Smooth regions become runs of zeros, leaving
// only the edges set.
func (p *Plane) XOR() *Plane {
	result := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		row := y * p.Width
		previous := false
		for x := 0; x < p.Width; x++ {
			current := p.Bits.Get(row + x)
			result.Bits.Set(row+x, current != previous)
			previous = current
		}
	}
	return result
}

// UnXOR reverses [Plane.XOR].
func (p *Plane) UnXOR() *Plane {
	result := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		row := y * p.Width
		previous := false
		for x := 0; x < p.Width; x++ {
			previous = previous != p.Bits.Get(row+x)
			result.Bits.Set(row+x, previous)
		}
	}
	return result
}
