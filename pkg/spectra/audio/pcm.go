package audio

import "math"

// PCM is decoded mono audio normalized to [-1, 1].
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the audio in seconds.
func (p *PCM) Duration() float64 {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// downmixToMono converts interleaved integer samples of the given bit depth
// to mono float64 samples by averaging channels. A trailing partial frame is dropped.
func downmixToMono(data []int, channels, bitDepth int) []float64 {
	if channels < 1 {
		channels = 1
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(uint(bitDepth)-1))

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = clamp(sum / float64(channels) * scale)
	}
	return out
}

// resampleLinear converts samples from one rate to another with linear
// interpolation. Equal rates return the input unchanged.
func resampleLinear(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float64, outLen)
	step := float64(from) / float64(to)
	last := len(samples) - 1

	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// quantize16 converts normalized samples to signed 16-bit integer values.
func quantize16(samples []float64) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(clamp(s) * 32767)
		out[i] = int(v)
	}
	return out
}

// int16LEToFloat converts little-endian signed 16-bit PCM bytes to normalized samples.
func int16LEToFloat(b []byte) []float64 {
	const scale = 1.0 / 32768.0
	n := len(b) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = float64(v) * scale
	}
	return out
}

// PeakAmplitude returns the largest absolute sample value.
func PeakAmplitude(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
