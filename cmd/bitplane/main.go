package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dargueta/bitplane"
	"github.com/urfave/cli/v2"
)

// errUsage marks mistakes on the command line. They're reported without
// failing the process.
var errUsage = errors.New("usage error")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// imageError reports images the codec can't take, such as ones with
// transparency, as usage errors.
func imageError(path string, err error) error {
	if errors.Is(err, bitplane.ErrInvalidChannelCount) {
		return fmt.Errorf("%w: %s: %w", errUsage, path, err)
	}
	return err
}

var inputFlag = &cli.StringFlag{
	Name:    "input",
	Aliases: []string{"I"},
	Usage:   "read from `FILE`",
}

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"O"},
	Usage:   "write to `FILE` (default depends on the command)",
}

// codecFlags are shared by every command that encodes planes.
var codecFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "conversion",
		Aliases: []string{"C"},
		Usage:   "color space conversion: RGB, HSV or Bayer",
		Value:   "RGB",
	},
	&cli.BoolFlag{
		Name:    "gray",
		Aliases: []string{"G"},
		Usage:   "Gray-code channels before splitting them into planes",
	},
	&cli.BoolFlag{
		Name:    "xor",
		Aliases: []string{"X"},
		Usage:   "XOR each plane with its left neighbor",
	},
	&cli.BoolFlag{
		Name:    "huffman",
		Aliases: []string{"H"},
		Usage:   "Huffman-code every plane (same as --post huffman)",
	},
	&cli.StringFlag{
		Name:  "post",
		Usage: "second compression pass: none, huffman, gzip, zstd or snappy",
		Value: "none",
	},
	&cli.IntFlag{
		Name:  "workers",
		Usage: "planes to code at once (0 means one per CPU)",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bitplane",
		Usage: "Compress images by run-length encoding their bit-planes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "load default options from a YAML `FILE`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log details about every plane",
			},
		},
		Before:       setUpLogging,
		OnUsageError: reportUsageError,
		Commands: []*cli.Command{
			{
				Name:         "encode",
				Usage:        "Compress an image",
				Action:       encodeImage,
				Flags:        append([]cli.Flag{inputFlag, outputFlag}, codecFlags...),
				OnUsageError: reportUsageError,
			},
			{
				Name:         "decode",
				Usage:        "Decompress an image; the output format follows the extension",
				Action:       decodeImage,
				Flags:        []cli.Flag{inputFlag, outputFlag, codecFlags[len(codecFlags)-1]},
				OnUsageError: reportUsageError,
			},
			{
				Name:   "huffman",
				Usage:  "Huffman-code any file",
				Action: huffmanFile,
				Flags: []cli.Flag{
					inputFlag,
					outputFlag,
					&cli.BoolFlag{
						Name:  "wide",
						Usage: "use 16-bit symbols",
					},
					&cli.BoolFlag{
						Name:    "decode",
						Aliases: []string{"D"},
						Usage:   "decompress instead of compressing",
					},
				},
				OnUsageError: reportUsageError,
			},
			{
				Name:   "analyze",
				Usage:  "Print a CSV report of byte frequencies, or of plane coding with --planes",
				Action: analyzeFile,
				Flags: append(
					[]cli.Flag{
						inputFlag,
						outputFlag,
						&cli.BoolFlag{
							Name:  "planes",
							Usage: "treat the input as an image and report how each plane codes",
						},
					},
					codecFlags...),
				OnUsageError: reportUsageError,
			},
			{
				Name:   "planes",
				Usage:  "Write every channel and bit-plane of an image as separate images",
				Action: exportPlanes,
				Flags: []cli.Flag{
					inputFlag,
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"O"},
						Usage:   "write images into `DIR`",
						Value:   ".",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "image format to write: png or bmp",
						Value: "png",
					},
					codecFlags[0],
					codecFlags[1],
					codecFlags[2],
				},
				OnUsageError: reportUsageError,
			},
		},
	}
}

func reportUsageError(context *cli.Context, err error, isSubcommand bool) error {
	fmt.Fprintf(context.App.Writer, "%s\n", err.Error())
	return nil
}

func setUpLogging(context *cli.Context) error {
	level := slog.LevelInfo
	if context.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	app := newApp()
	err := app.Run(os.Args)
	if errors.Is(err, errUsage) {
		fmt.Println(err.Error())
		return
	}
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}
