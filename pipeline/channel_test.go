package pipeline_test

import (
	"math/bits"
	"testing"

	"github.com/dargueta/bitplane/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrayCode(t *testing.T) {
	for value := 0; value < 256; value++ {
		encoded := pipeline.GrayEncode(byte(value))
		assert.EqualValues(t, value, pipeline.GrayDecode(encoded), "value %d", value)

		if value > 0 {
			previous := pipeline.GrayEncode(byte(value - 1))
			assert.Equal(
				t, 1, bits.OnesCount8(previous^encoded), "%d and %d", value-1, value)
		}
	}
}

func TestChannel__PlaneRoundTrip(t *testing.T) {
	channel := pipeline.NewChannel(5, 3)
	for i := range channel.Pix {
		channel.Pix[i] = byte(i * 17)
	}

	rebuilt := pipeline.NewChannel(5, 3)
	for bit := uint(0); bit < 8; bit++ {
		plane := channel.Plane(bit)
		assert.Equal(t, 5, plane.Width)
		assert.Equal(t, 3, plane.Height)
		for i, value := range channel.Pix {
			assert.Equal(t, value&(1<<bit) != 0, plane.Get(i), "bit %d of pixel %d", bit, i)
		}
		require.NoError(t, rebuilt.SetPlane(bit, plane))
	}
	assert.Equal(t, channel.Pix, rebuilt.Pix)
}

func TestChannel__SetPlaneWrongSize(t *testing.T) {
	channel := pipeline.NewChannel(4, 4)
	err := channel.SetPlane(0, pipeline.NewPlane(4, 3))
	assert.Error(t, err)
}

func planeFromRows(rows ...string) *pipeline.Plane {
	plane := pipeline.NewPlane(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			plane.Bits.Set(y*len(row)+x, c == '1')
		}
	}
	return plane
}

func planeToRows(plane *pipeline.Plane) []string {
	rows := make([]string, plane.Height)
	for y := range rows {
		row := make([]byte, plane.Width)
		for x := range row {
			row[x] = '0'
			if plane.Get(y*plane.Width + x) {
				row[x] = '1'
			}
		}
		rows[y] = string(row)
	}
	return rows
}

func TestPlane__XOR(t *testing.T) {
	plane := planeFromRows(
		"11001",
		"00000",
		"11111",
	)
	filtered := plane.XOR()
	assert.Equal(
		t,
		[]string{
			"10101",
			"00000",
			"10000",
		},
		planeToRows(filtered),
		"first pixel of each row must be unfiltered")

	assert.Equal(t, planeToRows(plane), planeToRows(filtered.UnXOR()))
}
