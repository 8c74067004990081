package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-audio/wav"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// Decoder turns a raw captured blob into mono PCM.
type Decoder interface {
	Decode(ctx context.Context, raw []byte, targetRate int) (*PCM, error)
}

// WAVDecoder decodes RIFF/WAVE blobs in-process.
type WAVDecoder struct{}

// Decode reads any integer PCM WAV, downmixes to mono and resamples to targetRate.
func (WAVDecoder) Decode(_ context.Context, raw []byte, targetRate int) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV container", model.ErrDecode)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: reading PCM: %v", model.ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: WAV contains no samples", model.ErrDecode)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	mono := downmixToMono(buf.Data, buf.Format.NumChannels, bitDepth)
	srcRate := buf.Format.SampleRate
	if targetRate <= 0 {
		targetRate = srcRate
	}

	return &PCM{
		Samples:    resampleLinear(mono, srcRate, targetRate),
		SampleRate: targetRate,
	}, nil
}

// FFmpegDecoder pipes compressed blobs (webm/opus, ogg, mp4, ...) through
// ffmpeg, which does the decoding, downmix and resampling.
type FFmpegDecoder struct {
	Path    string        // ffmpeg binary, default "ffmpeg"
	Timeout time.Duration // applied when ctx has no deadline, default 10s
}

func (d FFmpegDecoder) Decode(ctx context.Context, raw []byte, targetRate int) (*PCM, error) {
	path := d.Path
	if path == "" {
		path = "ffmpeg"
	}
	if targetRate <= 0 {
		targetRate = DefaultSampleRate
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := d.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		path,
		"-hide_banner",
		"-v", "error",
		"-i", "pipe:0",
		"-ac", "1", // mono
		"-ar", strconv.Itoa(targetRate),
		"-f", "s16le",
		"-c:a", "pcm_s16le",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDecode, ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found in PATH", model.ErrDecode, path)
		}
		return nil, fmt.Errorf("%w: ffmpeg failed: %v (%s)", model.ErrDecode, err, truncate(stderr.Bytes(), 200))
	}

	if stdout.Len() < 2 {
		return nil, fmt.Errorf("%w: ffmpeg produced no samples", model.ErrDecode)
	}

	return &PCM{
		Samples:    int16LEToFloat(stdout.Bytes()),
		SampleRate: targetRate,
	}, nil
}

// truncate returns the first n bytes of b as a string.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
