package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dargueta/bitplane/pipeline"
	"github.com/dargueta/bitplane/utilities/compression/huffman"
	"github.com/urfave/cli/v2"
)

func encodeImage(context *cli.Context) error {
	inputPath, err := requireInput(context)
	if err != nil {
		return err
	}
	opts, err := optionsFromContext(context)
	if err != nil {
		return err
	}

	outputPath := context.String("output")
	if outputPath == "" {
		outputPath = EncodedPath(inputPath)
	}

	img, format, err := loadImage(inputPath)
	if err != nil {
		return err
	}
	slog.Debug(
		"loaded image",
		"path", inputPath,
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	output, finish, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	summary, err := pipeline.Encode(img, output, opts)
	if err = finish(err); err != nil {
		return imageError(inputPath, err)
	}

	for _, stats := range summary.Planes {
		slog.Debug(
			"plane",
			"channel", stats.Channel,
			"bit", stats.Bit,
			"codebook", stats.Codebook,
			"encoded", stats.EncodedSize,
			"stored", stats.StoredSize)
	}
	slog.Info(
		"encoded image",
		"output", outputPath,
		"channels", summary.Header.Channels,
		"conversion", summary.Header.Conversion,
		"post", summary.Header.Post,
		"bytes", summary.BytesWritten)
	return nil
}

func decodeImage(context *cli.Context) error {
	inputPath, err := requireInput(context)
	if err != nil {
		return err
	}

	outputPath := context.String("output")
	if outputPath == "" {
		outputPath = DecodedPath(inputPath)
	}
	format, err := imageFormat(outputPath)
	if err != nil {
		return err
	}

	input, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	img, header, err := pipeline.Decode(input, context.Int("workers"))
	if err != nil {
		return fmt.Errorf("can't decode %q: %w", inputPath, err)
	}

	output, finish, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	if err = finish(writeImage(output, format, img)); err != nil {
		return err
	}

	slog.Info(
		"decoded image",
		"output", outputPath,
		"width", header.Width,
		"height", header.Height,
		"channels", header.Channels,
		"conversion", header.Conversion)
	return nil
}

func huffmanFile(context *cli.Context) error {
	inputPath, err := requireInput(context)
	if err != nil {
		return err
	}

	decode := context.Bool("decode")
	outputPath := context.String("output")
	if outputPath == "" {
		if decode {
			if !strings.HasSuffix(inputPath, HuffmanExtension) {
				return usageError("no output path given and %q doesn't end in %s", inputPath, HuffmanExtension)
			}
			outputPath = strings.TrimSuffix(inputPath, HuffmanExtension)
		} else {
			outputPath = inputPath + HuffmanExtension
		}
	}

	input, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	output, finish, err := createOutput(outputPath)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(output)
	var written int64
	if decode {
		written, err = huffman.Decompress(input, writer)
	} else {
		written, err = huffman.Compress(input, writer, context.Bool("wide"))
	}
	if err == nil {
		err = writer.Flush()
	}
	if err = finish(err); err != nil {
		return err
	}

	slog.Info("wrote file", "output", outputPath, "bytes", written, "decode", decode)
	return nil
}
