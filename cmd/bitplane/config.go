package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/pipeline"
	"github.com/dargueta/bitplane/utilities/compression"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ContainerExtension is appended to the input path when encoding without an
// explicit output path.
const ContainerExtension = ".bpl"

// HuffmanExtension plays the same role for the huffman command.
const HuffmanExtension = ".huf"

// FileConfig holds defaults loaded with --config. Flags given on the command
// line take precedence over anything in here.
type FileConfig struct {
	Conversion string `yaml:"conversion"`
	Gray       bool   `yaml:"gray"`
	XOR        bool   `yaml:"xor"`
	Post       string `yaml:"post"`
	Workers    int    `yaml:"workers"`
}

// LoadFileConfig reads a YAML configuration file. Unknown keys are an error so
// that typos don't silently fall back to the defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := &FileConfig{}
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return config, nil
}

// Apply overwrites the fields of opts that the configuration sets.
func (config *FileConfig) Apply(opts *pipeline.Options) error {
	if config.Conversion != "" {
		conversion, err := bitplane.ParseColorConversion(config.Conversion)
		if err != nil {
			return err
		}
		opts.Conversion = conversion
	}
	if config.Post != "" {
		method, err := compression.ParseMethod(config.Post)
		if err != nil {
			return err
		}
		opts.Post = method
	}
	opts.Gray = opts.Gray || config.Gray
	opts.XOR = opts.XOR || config.XOR
	if config.Workers != 0 {
		opts.Workers = config.Workers
	}
	return nil
}

// optionsFromContext builds encoding options from the defaults, then the
// config file, then whichever flags were given explicitly.
func optionsFromContext(context *cli.Context) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	if path := context.String("config"); path != "" {
		config, err := LoadFileConfig(path)
		if err != nil {
			return opts, usageError("%s", err.Error())
		}
		if err := config.Apply(&opts); err != nil {
			return opts, usageError("%s: %s", path, err.Error())
		}
	}

	if context.IsSet("conversion") {
		conversion, err := bitplane.ParseColorConversion(context.String("conversion"))
		if err != nil {
			return opts, usageError("%s", err.Error())
		}
		opts.Conversion = conversion
	}
	if context.IsSet("post") {
		method, err := compression.ParseMethod(context.String("post"))
		if err != nil {
			return opts, usageError("%s", err.Error())
		}
		opts.Post = method
	}
	if context.IsSet("huffman") && context.Bool("huffman") {
		if context.IsSet("post") && opts.Post != compression.MethodHuffman {
			return opts, usageError("--huffman conflicts with --post %s", opts.Post)
		}
		opts.Post = compression.MethodHuffman
	}
	if context.IsSet("gray") {
		opts.Gray = context.Bool("gray")
	}
	if context.IsSet("xor") {
		opts.XOR = context.Bool("xor")
	}
	if context.IsSet("workers") {
		opts.Workers = context.Int("workers")
	}
	return opts, nil
}

// requireInput returns the --input path, or a usage error if it's missing.
func requireInput(context *cli.Context) (string, error) {
	path := context.String("input")
	if path == "" {
		path = context.Args().First()
	}
	if path == "" {
		return "", usageError("%s: an input file is required (-I FILE)", context.Command.Name)
	}
	return path, nil
}

// EncodedPath is the default output path for encoding inputPath.
func EncodedPath(inputPath string) string {
	return inputPath + ContainerExtension
}

// DecodedPath strips the last extension from inputPath. An input with no
// extension gets ".png" so the output never overwrites the input.
func DecodedPath(inputPath string) string {
	extension := filepath.Ext(inputPath)
	if extension == "" {
		return inputPath + ".png"
	}
	return strings.TrimSuffix(inputPath, extension)
}
