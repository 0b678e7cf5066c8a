package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Format describes PCM audio.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BytesPerSecond returns the data rate of f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Duration returns how long n bytes of f take to play.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Sound is a decoded WAV file.
type Sound struct {
	Format Format
	Data   []byte
}

// Duration returns the playing time of s.
func (s *Sound) Duration() time.Duration {
	return s.Format.Duration(len(s.Data))
}

var (
	// ErrNotWAV indicates the data is not a RIFF/WAVE file
	ErrNotWAV = errors.New("not a WAV file")

	// ErrUnsupportedFormat indicates a WAV encoding other than 16-bit PCM
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// DecodeWAV parses a 16-bit PCM WAV file. Engines that stream their output
// often leave the RIFF and data sizes unset; a data chunk that claims more
// bytes than remain is truncated to what is there.
func DecodeWAV(data []byte) (*Sound, error) {
	r := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, ErrNotWAV
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format  Format
		haveFmt bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, fmt.Errorf("%w: no data chunk", ErrNotWAV)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		offset, _ := r.Seek(0, io.SeekCurrent)

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			var raw [16]byte
			if _, err := io.ReadFull(r, raw[:]); err != nil {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			tag := binary.LittleEndian.Uint16(raw[0:2])
			format = Format{
				Channels:      int(binary.LittleEndian.Uint16(raw[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(raw[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(raw[14:16])),
			}
			if (tag != wavFormatPCM && tag != wavFormatExtensible) || format.BitsPerSample != 16 {
				return nil, fmt.Errorf("%w: tag %d, %d bits", ErrUnsupportedFormat, tag, format.BitsPerSample)
			}
			if format.Channels < 1 || format.SampleRate < 1 {
				return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, format.Channels, format.SampleRate)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data before fmt", ErrNotWAV)
			}
			end := offset + size
			if end > int64(len(data)) {
				end = int64(len(data))
			}
			pcm := data[offset:end]
			// Drop a trailing half sample.
			frame := format.Channels * 2
			pcm = pcm[:len(pcm)-len(pcm)%frame]
			return &Sound{Format: format, Data: pcm}, nil
		}

		// Chunks are word aligned.
		next := offset + size + size%2
		if next > int64(len(data)) {
			return nil, fmt.Errorf("%w: no data chunk", ErrNotWAV)
		}
		if _, err := r.Seek(next, io.SeekStart); err != nil {
			return nil, err
		}
	}
}
