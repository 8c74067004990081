package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WavFormat holds the format information from the fmt chunk
type WavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ContainerInfo describes a parsed WAV container: what the header declares
// and what is actually present in the byte slice.
type ContainerInfo struct {
	Format      WavFormat
	FileSize    int    // total bytes inspected
	RIFFSize    uint32 // declared size after the 8-byte RIFF header
	DataSize    uint32 // declared size of the data chunk
	DataOffset  int    // offset of the first PCM byte
	PayloadSize int    // PCM bytes actually present in the data chunk
}

// Consistent reports whether every declared size matches the bytes present.
func (c *ContainerInfo) Consistent() bool {
	return int(c.RIFFSize) == c.FileSize-8 && int(c.DataSize) == c.PayloadSize
}

// Frames returns the number of sample frames in the payload.
func (c *ContainerInfo) Frames() int {
	if c.Format.BlockAlign == 0 {
		return 0
	}
	return c.PayloadSize / int(c.Format.BlockAlign)
}

// isRIFF reports whether b starts with a RIFF/WAVE header.
func isRIFF(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

// readRIFFHeader reads and validates the RIFF/WAVE header (12 bytes)
func readRIFFHeader(r io.Reader) (uint32, error) {
	var riff [4]byte
	var fileSize uint32
	var wave [4]byte

	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return 0, fmt.Errorf("reading RIFF header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &fileSize); err != nil {
		return 0, fmt.Errorf("reading RIFF size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &wave); err != nil {
		return 0, fmt.Errorf("reading WAVE id: %w", err)
	}

	if string(riff[:]) != "RIFF" || string(wave[:]) != "WAVE" {
		return 0, errors.New("not a WAV/RIFF file")
	}

	return fileSize, nil
}

// readFmtChunk reads the fmt chunk and skips any extension bytes.
func readFmtChunk(r io.ReadSeeker, chunkSize uint32) (*WavFormat, error) {
	if chunkSize < 16 {
		return nil, fmt.Errorf("fmt chunk too small: %d bytes", chunkSize)
	}

	var f WavFormat
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, fmt.Errorf("reading fmt chunk: %w", err)
	}

	if remaining := int64(chunkSize) - 16; remaining > 0 {
		if _, err := r.Seek(remaining, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("seeking past fmt extras: %w", err)
		}
	}

	return &f, nil
}

// Inspect parses a WAV container without assuming a canonical 44-byte
// header. Unknown chunks (LIST, INFO, junk) are skipped.
func Inspect(b []byte) (*ContainerInfo, error) {
	r := bytes.NewReader(b)

	riffSize, err := readRIFFHeader(r)
	if err != nil {
		return nil, err
	}

	info := &ContainerInfo{FileSize: len(b), RIFFSize: riffSize}
	fmtFound := false
	dataFound := false

	for !(fmtFound && dataFound) {
		var chunkID [4]byte
		var chunkSize uint32

		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("reading chunk size: %w", err)
		}

		id := string(chunkID[:])
		switch id {
		case "fmt ":
			format, err := readFmtChunk(r, chunkSize)
			if err != nil {
				return nil, err
			}
			info.Format = *format
			fmtFound = true

		case "data":
			offset := len(b) - r.Len()
			available := r.Len()
			info.DataSize = chunkSize
			info.DataOffset = offset
			info.PayloadSize = available
			if int(chunkSize) <= available {
				info.PayloadSize = int(chunkSize)
			}
			if _, err := r.Seek(int64(info.PayloadSize), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking past data: %w", err)
			}
			dataFound = true

		default:
			if _, err := r.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skipping chunk %s: %w", id, err)
			}
		}

		// If chunk size is odd, skip pad byte
		if chunkSize%2 == 1 && r.Len() > 0 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking pad byte: %w", err)
			}
		}
	}

	if !fmtFound {
		return nil, errors.New("fmt chunk not found")
	}
	if !dataFound {
		return nil, errors.New("data chunk not found")
	}

	return info, nil
}

// ReadSamples returns the mono normalized samples of a 16-bit PCM WAV container.
func ReadSamples(b []byte) ([]float64, *ContainerInfo, error) {
	info, err := Inspect(b)
	if err != nil {
		return nil, nil, err
	}
	if info.Format.AudioFormat != 1 {
		return nil, nil, errors.New("unsupported WAV audio format: only PCM (1) supported")
	}
	if info.Format.BitsPerSample != 16 {
		return nil, nil, errors.New("unsupported bits per sample: only 16-bit supported")
	}

	payload := b[info.DataOffset : info.DataOffset+info.PayloadSize]
	samples := int16LEToFloat(payload)

	channels := int(info.Format.NumChannels)
	if channels <= 1 {
		return samples, info, nil
	}
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono, info, nil
}
