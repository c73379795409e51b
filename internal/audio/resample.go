package audio

import "fmt"

// TargetSampleRate is the rate long-form audio is normalized to before
// windowing. 600s of mono 16kHz PCM-16 is ~18.3MB per window, comfortably
// under the transcription API's 25MB limit.
const (
	TargetSampleRate = 16000
	WindowSeconds    = 600
)

// Downmix averages interleaved sample channels into a single mono track.
// Samples are interleaved frame by frame: [ch0 ch1 ... chN ch0 ch1 ...].
func Downmix(samples []int16, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(samples))
		for i, s := range samples {
			out[i] = float32(s) / 32768
		}
		return out
	}

	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += float32(samples[i*channels+ch]) / 32768
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples from srcRate to dstRate by linear
// interpolation between neighboring samples. Equal rates return the input
// unchanged.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	newLength := int(float64(len(samples))/ratio + 0.5)
	out := make([]float32, newLength)
	for i := 0; i < newLength; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))

		var cur, next float32
		if idx < len(samples) {
			cur = samples[idx]
		}
		if idx+1 < len(samples) {
			next = samples[idx+1]
		}
		out[i] = cur + frac*(next-cur)
	}
	return out
}

// SplitSamples slices a mono sample buffer into fixed-duration windows.
// The last window may be shorter; no samples are dropped.
func SplitSamples(samples []float32, sampleRate, windowSeconds int) [][]float32 {
	size := sampleRate * windowSeconds
	if size <= 0 || len(samples) == 0 {
		return nil
	}

	var windows [][]float32
	for offset := 0; offset < len(samples); offset += size {
		end := offset + size
		if end > len(samples) {
			end = len(samples)
		}
		windows = append(windows, samples[offset:end])
	}
	return windows
}

// Quantize clamps float samples to [-1, 1] and converts them to PCM-16.
func Quantize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7FFF)
		}
	}
	return out
}

// SplitWAV decodes a whole WAV file, normalizes it to mono
// TargetSampleRate, slices it into WindowSeconds windows and re-encodes
// each window as an independently valid WAV piece. This is the
// decode-and-re-encode splitting strategy; Split is the container-agnostic
// byte-slicing one. The two coexist deliberately and callers pick.
func SplitWAV(data []byte) ([]Piece, error) {
	raw, rate, channels, err := DecodeWAV(data)
	if err != nil {
		return nil, err
	}

	mono := Downmix(raw, channels)
	mono = Resample(mono, rate, TargetSampleRate)
	windows := SplitSamples(mono, TargetSampleRate, WindowSeconds)

	pieces := make([]Piece, 0, len(windows))
	for i, window := range windows {
		encoded, err := EncodeWAV(Quantize(window), TargetSampleRate)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, Piece{
			Data:        encoded,
			Index:       i,
			TotalPieces: len(windows),
			Filename:    fmt.Sprintf("part-%d.wav", i),
		})
	}
	return pieces, nil
}
