package pipeline

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/compression"
	"github.com/dargueta/bitplane/utilities/compression/rle"
	"github.com/hashicorp/go-multierror"
)

// PlaneStats describes how a single plane was stored.
type PlaneStats struct {
	Channel  int
	Bit      int
	Codebook rle.Type
	// EncodedSize is the size of the serialized RLE buffer.
	EncodedSize int
	// StoredSize is the size of the plane record in the container, after any
	// second pass and including its length prefix.
	StoredSize int
}

// Summary is the result of encoding an image.
type Summary struct {
	Header       Header
	Planes       []PlaneStats
	BytesWritten int64
}

type planeJob struct {
	channel int
	bit     int
}

// runJobs calls `work` once for each of `count` jobs, at most `workers` at a
// time. Failures are collected rather than stopping the other jobs.
func runJobs(count, workers int, work func(index int) error) error {
	jobs := make(chan int)
	errs := make([]error, count)

	var wg sync.WaitGroup
	for i := 0; i < workerCount(workers, count); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				errs[index] = work(index)
			}
		}()
	}

	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// EncodePlane prepares and run-length encodes a single plane, returning the
// serialized buffer.
func EncodePlane(channel *Channel, bit int, xor bool) (*rle.Buffer, error) {
	plane := channel.Plane(uint(bit))
	if xor {
		plane = plane.XOR()
	}
	return rle.SelectBest(plane, plane.Width, plane.Height)
}

// EncodeChannels encodes every plane of every channel and returns the plane
// records in container order.
func EncodeChannels(channels []*Channel, opts Options) ([][]byte, []PlaneStats, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}

	if opts.Gray {
		grayCoded := make([]*Channel, len(channels))
		for i, channel := range channels {
			grayCoded[i] = channel.ToGray()
		}
		channels = grayCoded
	}

	total := len(channels) * bitplane.BitsPerChannel
	records := make([][]byte, total)
	stats := make([]PlaneStats, total)

	err := runJobs(
		total,
		opts.Workers,
		func(index int) error {
			job := planeJob{
				channel: index / bitplane.BitsPerChannel,
				bit:     index % bitplane.BitsPerChannel,
			}
			buf, err := EncodePlane(channels[job.channel], job.bit, opts.XOR)
			if err != nil {
				return fmt.Errorf("channel %d plane %d: %w", job.channel, job.bit, err)
			}

			encoded, err := buf.MarshalBinary()
			if err != nil {
				return err
			}
			record, err := opts.Post.Compress(encoded)
			if err != nil {
				return fmt.Errorf("channel %d plane %d: %w", job.channel, job.bit, err)
			}

			records[index] = record
			stats[index] = PlaneStats{
				Channel:     job.channel,
				Bit:         job.bit,
				Codebook:    buf.Codebook,
				EncodedSize: len(encoded),
				StoredSize:  len(record),
			}
			if opts.Post != compression.MethodNone {
				stats[index].StoredSize += 4
			}
			return nil
		},
	)
	if err != nil {
		return nil, nil, err
	}
	return records, stats, nil
}

// Encode splits the image into channels and writes every one of its planes to
// `output` as a container.
func Encode(img image.Image, output io.Writer, opts Options) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkImageSize(img.Bounds().Dx(), img.Bounds().Dy()); err != nil {
		return nil, bitplane.ErrInvalidArgument.Wrap(err)
	}

	channels, err := SplitImage(img, opts.Conversion)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Header: Header{
			Flags:      opts.flags(),
			Channels:   len(channels),
			Conversion: opts.Conversion,
			Post:       opts.Post,
			Width:      img.Bounds().Dx(),
			Height:     img.Bounds().Dy(),
		},
	}

	records, stats, err := EncodeChannels(channels, opts)
	if err != nil {
		return nil, err
	}
	summary.Planes = stats

	writer := bufio.NewWriter(output)
	n, err := summary.Header.WriteTo(writer)
	summary.BytesWritten += n
	if err != nil {
		return summary, err
	}

	for _, record := range records {
		n, err = WriteRecord(writer, opts.Post, record)
		summary.BytesWritten += n
		if err != nil {
			return summary, err
		}
	}

	if err = writer.Flush(); err != nil {
		return summary, bitplane.ErrIOFailed.Wrap(err)
	}
	return summary, nil
}

// DecodePlane reverses [EncodePlane].
func DecodePlane(buf *rle.Buffer, xor bool) (*Plane, error) {
	bits, err := rle.DecodePlane(buf)
	if err != nil {
		return nil, err
	}

	plane := &Plane{Width: int(buf.Width), Height: int(buf.Height), Bits: bits}
	if xor {
		plane = plane.UnXOR()
	}
	return plane, nil
}

// DecodeChannels rebuilds channels from their plane records, as returned by
// [EncodeChannels].
func DecodeChannels(header *Header, records [][]byte, workers int) ([]*Channel, error) {
	if err := checkImageSize(header.Width, header.Height); err != nil {
		return nil, bitplane.ErrCorruptStream.Wrap(err)
	}
	sizes, err := ChannelSizes(header.Channels, header.Conversion, header.Width, header.Height)
	if err != nil {
		return nil, err
	}
	if len(records) != header.Planes() {
		return nil, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("expected %d plane records, got %d", header.Planes(), len(records)))
	}

	channels := make([]*Channel, header.Channels)
	for i, size := range sizes {
		channels[i] = NewChannel(size.X, size.Y)
	}

	// Each plane sets a different bit of the same bytes, so planes are decoded
	// in parallel but merged into their channels afterwards.
	planes := make([]*Plane, len(records))
	err = runJobs(
		len(records),
		workers,
		func(index int) error {
			channel := index / bitplane.BitsPerChannel
			bit := index % bitplane.BitsPerChannel

			encoded, err := header.Post.Decompress(records[index])
			if err != nil {
				return fmt.Errorf("channel %d plane %d: %w", channel, bit, err)
			}

			var buf rle.Buffer
			if err := buf.UnmarshalBinary(encoded); err != nil {
				return fmt.Errorf("channel %d plane %d: %w", channel, bit, err)
			}

			plane, err := DecodePlane(&buf, header.XOR())
			if err != nil {
				return fmt.Errorf("channel %d plane %d: %w", channel, bit, err)
			}
			planes[index] = plane
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	for index, plane := range planes {
		channel := index / bitplane.BitsPerChannel
		bit := index % bitplane.BitsPerChannel
		if err := channels[channel].SetPlane(uint(bit), plane); err != nil {
			return nil, err
		}
	}

	if header.Gray() {
		for i, channel := range channels {
			channels[i] = channel.FromGray()
		}
	}
	return channels, nil
}

// ReadContainer reads a container's header and all of its plane records.
func ReadContainer(input io.Reader) (*Header, [][]byte, error) {
	reader := bufio.NewReader(input)

	header := &Header{}
	if _, err := header.ReadFrom(reader); err != nil {
		return nil, nil, err
	}

	records := make([][]byte, header.Planes())
	for i := range records {
		record, err := ReadRecord(reader, header.Post)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"channel %d plane %d: %w",
				i/bitplane.BitsPerChannel,
				i%bitplane.BitsPerChannel,
				err)
		}
		records[i] = record
	}

	if _, err := reader.Peek(1); err != io.EOF {
		if err != nil {
			return nil, nil, bitplane.ErrIOFailed.Wrap(err)
		}
		return nil, nil, bitplane.ErrCorruptStream.WithMessage(
			"trailing data after the last plane")
	}
	return header, records, nil
}

// Decode reads a container written by [Encode] and rebuilds the image. At most
// `workers` planes are decoded at once; zero or less means one per CPU.
func Decode(input io.Reader, workers int) (image.Image, *Header, error) {
	header, records, err := ReadContainer(input)
	if err != nil {
		return nil, nil, err
	}

	channels, err := DecodeChannels(header, records, workers)
	if err != nil {
		return nil, header, err
	}

	img, err := MergeChannels(channels, header.Conversion, header.Width, header.Height)
	if err != nil {
		return nil, header, err
	}
	return img, header, nil
}
