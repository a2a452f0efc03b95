package main

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/pipeline"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
)

// ByteFrequency is one row of the byte histogram report.
type ByteFrequency struct {
	Value   int     `csv:"value"`
	Count   int     `csv:"count"`
	Percent float64 `csv:"percent"`
}

// PlaneReport is one row of the per-plane report.
type PlaneReport struct {
	Channel       int     `csv:"channel"`
	Bit           int     `csv:"bit"`
	Codebook      int     `csv:"codebook"`
	EncodedSize   int     `csv:"encoded_size"`
	StoredSize    int     `csv:"stored_size"`
	PixelsPerByte float64 `csv:"pixels_per_byte"`
}

// ByteHistogram counts every byte value in data. Values that never occur are
// left out.
func ByteHistogram(data []byte) []ByteFrequency {
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	rows := make([]ByteFrequency, 0, 256)
	for value, count := range counts {
		if count == 0 {
			continue
		}
		rows = append(rows, ByteFrequency{
			Value:   value,
			Count:   count,
			Percent: 100 * float64(count) / float64(len(data)),
		})
	}
	return rows
}

// PlaneReports converts plane statistics into report rows. `pixels` is the
// pixel count of each channel, in order.
func PlaneReports(stats []pipeline.PlaneStats, pixels []int) []PlaneReport {
	rows := make([]PlaneReport, len(stats))
	for i, plane := range stats {
		rows[i] = PlaneReport{
			Channel:     plane.Channel,
			Bit:         plane.Bit,
			Codebook:    int(plane.Codebook),
			EncodedSize: plane.EncodedSize,
			StoredSize:  plane.StoredSize,
		}
		if plane.StoredSize > 0 {
			rows[i].PixelsPerByte = float64(pixels[plane.Channel]) / float64(plane.StoredSize)
		}
	}
	return rows
}

func reportOutput(context *cli.Context) (io.Writer, func(error) error, error) {
	path := context.String("output")
	if path == "" || path == "-" {
		return context.App.Writer, func(err error) error { return err }, nil
	}
	file, finish, err := createOutput(path)
	if err != nil {
		return nil, nil, err
	}
	return file, finish, nil
}

func analyzeFile(context *cli.Context) error {
	inputPath, err := requireInput(context)
	if err != nil {
		return err
	}

	var rows any
	if context.Bool("planes") {
		rows, err = analyzePlanes(context, inputPath)
	} else {
		var data []byte
		data, err = os.ReadFile(inputPath)
		rows = ByteHistogram(data)
	}
	if err != nil {
		return err
	}

	output, finish, err := reportOutput(context)
	if err != nil {
		return err
	}
	return finish(gocsv.Marshal(rows, output))
}

func analyzePlanes(context *cli.Context, inputPath string) ([]PlaneReport, error) {
	opts, err := optionsFromContext(context)
	if err != nil {
		return nil, err
	}

	img, _, err := loadImage(inputPath)
	if err != nil {
		return nil, err
	}
	channels, err := pipeline.SplitImage(img, opts.Conversion)
	if err != nil {
		return nil, imageError(inputPath, err)
	}

	_, stats, err := pipeline.EncodeChannels(channels, opts)
	if err != nil {
		return nil, err
	}

	pixels := make([]int, len(channels))
	for i, channel := range channels {
		pixels[i] = channel.Width * channel.Height
	}
	return PlaneReports(stats, pixels), nil
}

// channelImage views a channel as a grayscale image without copying it.
func channelImage(channel *pipeline.Channel) *image.Gray {
	return &image.Gray{
		Pix:    channel.Pix,
		Stride: channel.Width,
		Rect:   image.Rect(0, 0, channel.Width, channel.Height),
	}
}

// planeImage draws set bits white and clear bits black.
func planeImage(plane *pipeline.Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, plane.Width, plane.Height))
	for i := range img.Pix {
		if plane.Get(i) {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

func exportPlanes(context *cli.Context) error {
	inputPath, err := requireInput(context)
	if err != nil {
		return err
	}
	opts, err := optionsFromContext(context)
	if err != nil {
		return err
	}

	format := strings.ToLower(context.String("format"))
	if format != "png" && format != "bmp" {
		return usageError("unsupported image format %q; use png or bmp", format)
	}

	outputDir := context.String("output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	img, _, err := loadImage(inputPath)
	if err != nil {
		return err
	}
	channels, err := pipeline.SplitImage(img, opts.Conversion)
	if err != nil {
		return imageError(inputPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	written := 0
	for c, channel := range channels {
		name := filepath.Join(outputDir, fmt.Sprintf("%s_c%d.%s", base, c, format))
		if err := saveImage(name, channelImage(channel)); err != nil {
			return err
		}
		written++

		if opts.Gray {
			channel = channel.ToGray()
		}
		for bit := uint(0); bit < bitplane.BitsPerChannel; bit++ {
			plane := channel.Plane(bit)
			if opts.XOR {
				plane = plane.XOR()
			}

			name := filepath.Join(outputDir, fmt.Sprintf("%s_c%d_b%d.%s", base, c, bit, format))
			if err := saveImage(name, planeImage(plane)); err != nil {
				return err
			}
			written++
		}
	}

	slog.Info("exported planes", "directory", outputDir, "images", written)
	return nil
}
