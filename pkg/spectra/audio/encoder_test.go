package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// makeWAV builds a 16-bit PCM WAV holding a sine tone on every channel.
func makeWAV(t *testing.T, rate, channels int, seconds, amplitude float64) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	frames := int(float64(rate) * seconds)
	data := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))))
		for c := 0; c < channels; c++ {
			data = append(data, v)
		}
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return b
}

func TestEncodeWAVProducesCanonicalContainer(t *testing.T) {
	raw := makeWAV(t, 44100, 2, 1.0, 0.5)
	enc := NewEncoder(EncoderConfig{TempDir: t.TempDir()})

	rec, err := enc.Encode(context.Background(), raw)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if rec.SampleRate != DefaultSampleRate || rec.Channels != 1 || rec.BitDepth != 16 {
		t.Fatalf("unexpected format: %d Hz, %d ch, %d bit", rec.SampleRate, rec.Channels, rec.BitDepth)
	}

	info, err := Inspect(rec.Data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !info.Consistent() {
		t.Fatalf("declared sizes disagree with payload: %+v", info)
	}
	if info.Format.AudioFormat != 1 || info.Format.NumChannels != 1 ||
		info.Format.SampleRate != DefaultSampleRate || info.Format.BitsPerSample != 16 {
		t.Errorf("header format mismatch: %+v", info.Format)
	}
	if got := info.Frames(); got != DefaultSampleRate {
		t.Errorf("expected %d frames, got %d", DefaultSampleRate, got)
	}
	if rec.Duration != time.Second {
		t.Errorf("expected 1s duration, got %v", rec.Duration)
	}
	if rec.Peak < 0.45 || rec.Peak > 0.55 {
		t.Errorf("peak %.3f outside expected range", rec.Peak)
	}
}

func TestEncodeKeepsSampleRateWhenConfigured(t *testing.T) {
	raw := makeWAV(t, 16000, 1, 0.5, 0.25)
	enc := NewEncoder(EncoderConfig{SampleRate: 16000, TempDir: t.TempDir()})

	rec, err := enc.Encode(context.Background(), raw)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	samples, info, err := ReadSamples(rec.Data)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if info.Format.SampleRate != 16000 {
		t.Errorf("expected 16000 Hz, got %d", info.Format.SampleRate)
	}
	if len(samples) != 8000 {
		t.Errorf("expected 8000 samples, got %d", len(samples))
	}
	if want := PeakAmplitude(samples); rec.Peak != want {
		t.Errorf("peak %v does not match the encoded payload peak %v", rec.Peak, want)
	}
}

func TestEncodeRejectsUndecodableInput(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"truncated riff", []byte("RIFF\x04\x00\x00\x00WAVE")},
		{"garbage", []byte("definitely not audio")},
	}

	enc := NewEncoder(EncoderConfig{
		TempDir:    t.TempDir(),
		FFmpegPath: "spectra-missing-ffmpeg",
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(context.Background(), tt.raw)
			if !errors.Is(err, model.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestEncodeConcurrentUse(t *testing.T) {
	raw := makeWAV(t, 8000, 1, 0.25, 0.3)
	enc := NewEncoder(EncoderConfig{TempDir: t.TempDir()})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := enc.Encode(context.Background(), raw)
			if err != nil {
				errs <- err
				return
			}
			info, err := Inspect(rec.Data)
			if err != nil {
				errs <- err
				return
			}
			if !info.Consistent() {
				errs <- errors.New("inconsistent container")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent encode: %v", err)
	}
}

func TestFFmpegDecoder(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	raw := makeWAV(t, 44100, 2, 1.0, 0.5)
	pcm, err := FFmpegDecoder{}.Decode(context.Background(), raw, DefaultSampleRate)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pcm.SampleRate != DefaultSampleRate {
		t.Errorf("expected %d Hz, got %d", DefaultSampleRate, pcm.SampleRate)
	}
	if n := len(pcm.Samples); n < DefaultSampleRate-200 || n > DefaultSampleRate+200 {
		t.Errorf("unexpected sample count %d", n)
	}
}

func TestFFmpegDecoderMissingBinary(t *testing.T) {
	_, err := FFmpegDecoder{Path: "spectra-missing-ffmpeg"}.Decode(context.Background(), []byte("x"), 0)
	if !errors.Is(err, model.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
