package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// imageFormat picks an encoder from the extension of path.
func imageFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".bmp":
		return "bmp", nil
	default:
		return "", usageError("can't tell what image format to write for %q; use .png or .bmp", path)
	}
}

func writeImage(output io.Writer, format string, img image.Image) error {
	switch format {
	case "png":
		return png.Encode(output, img)
	case "bmp":
		return bmp.Encode(output, img)
	default:
		return usageError("unsupported image format %q", format)
	}
}

// loadImage decodes any format registered with the image package; BMP comes
// from x/image.
func loadImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("can't read image %q: %w", path, err)
	}
	return img, format, nil
}

// createOutput opens path for writing and returns a function that finishes the
// file. Calling it with a non-nil error removes the partial output.
func createOutput(path string) (*os.File, func(error) error, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	finish := func(failure error) error {
		closeErr := file.Close()
		if failure == nil && closeErr == nil {
			return nil
		}
		os.Remove(path)
		if failure != nil {
			return failure
		}
		return closeErr
	}
	return file, finish, nil
}

// saveImage writes img to path in the format implied by its extension.
func saveImage(path string, img image.Image) error {
	format, err := imageFormat(path)
	if err != nil {
		return err
	}

	file, finish, err := createOutput(path)
	if err != nil {
		return err
	}
	return finish(writeImage(file, format, img))
}
