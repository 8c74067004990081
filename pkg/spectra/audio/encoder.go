package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
	"github.com/himanishpuri/spectra/pkg/utils"
)

const (
	// DefaultSampleRate matches the rate the recognition backend analyses at.
	DefaultSampleRate = 22050

	outputChannels = 1
	outputBitDepth = 16
	wavFormatPCM   = 1
)

// EncoderConfig configures the container encoder.
type EncoderConfig struct {
	SampleRate int    // output rate, default 22050
	TempDir    string // scratch space for the WAV writer, default os.TempDir()
	FFmpegPath string // used for non-WAV input, default "ffmpeg"
	Logger     model.Logger
}

// Encoder converts raw captured audio into a canonical mono 16-bit PCM WAV.
// It holds no per-call state and is safe for concurrent use.
type Encoder struct {
	cfg    EncoderConfig
	wav    Decoder
	ffmpeg Decoder
}

func NewEncoder(cfg EncoderConfig) *Encoder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = model.NopLogger{}
	}
	return &Encoder{
		cfg:    cfg,
		wav:    WAVDecoder{},
		ffmpeg: FFmpegDecoder{Path: cfg.FFmpegPath},
	}
}

// Encode decodes raw to PCM and re-wraps it with a header whose byte
// counts, rate, channel count and bit depth match the payload.
func (e *Encoder) Encode(ctx context.Context, raw []byte) (model.EncodedRecording, error) {
	if len(raw) == 0 {
		return model.EncodedRecording{}, fmt.Errorf("%w: empty recording", model.ErrDecode)
	}

	dec := e.ffmpeg
	if isRIFF(raw) {
		dec = e.wav
	}

	pcm, err := dec.Decode(ctx, raw, e.cfg.SampleRate)
	if err != nil {
		return model.EncodedRecording{}, err
	}
	if len(pcm.Samples) == 0 {
		return model.EncodedRecording{}, fmt.Errorf("%w: decoded audio is empty", model.ErrDecode)
	}

	data, err := e.writeWAV(pcm)
	if err != nil {
		return model.EncodedRecording{}, err
	}

	// Read the container back so the reported peak describes the quantized
	// payload the backend will receive.
	encoded, info, err := ReadSamples(data)
	if err != nil {
		return model.EncodedRecording{}, fmt.Errorf("verifying encoded container: %w", err)
	}
	if !info.Consistent() {
		return model.EncodedRecording{}, fmt.Errorf("encoded container sizes disagree: riff=%d data=%d payload=%d file=%d",
			info.RIFFSize, info.DataSize, info.PayloadSize, info.FileSize)
	}
	if len(encoded) != len(pcm.Samples) {
		return model.EncodedRecording{}, fmt.Errorf("encoded container holds %d samples, wrote %d", len(encoded), len(pcm.Samples))
	}

	rec := model.EncodedRecording{
		Data:       data,
		SampleRate: pcm.SampleRate,
		Channels:   outputChannels,
		BitDepth:   outputBitDepth,
		Duration:   time.Duration(pcm.Duration() * float64(time.Second)),
		Peak:       PeakAmplitude(encoded),
	}
	e.cfg.Logger.Debugf("Encoded %d samples at %d Hz (%d bytes)", len(pcm.Samples), pcm.SampleRate, len(data))
	return rec, nil
}

// writeWAV writes pcm through the go-audio encoder, which needs a seekable
// writer to patch the header sizes on Close.
func (e *Encoder) writeWAV(pcm *PCM) ([]byte, error) {
	if err := utils.MakeDir(e.cfg.TempDir); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	f, err := os.CreateTemp(e.cfg.TempDir, "spectra-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)
	defer f.Close()

	enc := wav.NewEncoder(f, pcm.SampleRate, outputBitDepth, outputChannels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: outputChannels,
			SampleRate:  pcm.SampleRate,
		},
		Data:           quantize16(pcm.Samples),
		SourceBitDepth: outputBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing WAV header: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	return os.ReadFile(tmpPath)
}
