package audio

import (
	"testing"
	"time"
)

func TestDownmixAveragesChannels(t *testing.T) {
	// Two channels interleaved: frames (16384, 0) and (0, -16384).
	samples := []int16{16384, 0, 0, -16384}

	mono := Downmix(samples, 2)
	if len(mono) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(mono))
	}

	if diff := mono[0] - 0.25; diff > 0.001 || diff < -0.001 {
		t.Fatalf("frame 0: got %f, want 0.25", mono[0])
	}
	if diff := mono[1] + 0.25; diff > 0.001 || diff < -0.001 {
		t.Fatalf("frame 1: got %f, want -0.25", mono[1])
	}
}

func TestResampleHalvesLength(t *testing.T) {
	src := make([]float32, 32000)
	for i := range src {
		src[i] = float32(i) / 32000
	}

	out := Resample(src, 32000, 16000)
	if len(out) != 16000 {
		t.Fatalf("expected 16000 samples, got %d", len(out))
	}

	// Linear interpolation over a linear ramp stays on the ramp.
	mid := out[8000]
	if diff := mid - 0.5; diff > 0.001 || diff < -0.001 {
		t.Fatalf("midpoint: got %f, want ~0.5", mid)
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	src := []float32{0.1, 0.2, 0.3}
	out := Resample(src, 16000, 16000)
	if len(out) != 3 || out[0] != 0.1 || out[2] != 0.3 {
		t.Fatalf("expected unchanged input, got %v", out)
	}
}

func TestSplitSamplesWindows(t *testing.T) {
	// 25 seconds at 16kHz with 10 second windows: 10 + 10 + 5.
	samples := make([]float32, 25*TargetSampleRate)

	windows := SplitSamples(samples, TargetSampleRate, 10)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if len(windows[0]) != 10*TargetSampleRate {
		t.Fatalf("window 0 has %d samples", len(windows[0]))
	}
	if len(windows[2]) != 5*TargetSampleRate {
		t.Fatalf("last window has %d samples", len(windows[2]))
	}
}

func TestQuantizeClamps(t *testing.T) {
	out := Quantize([]float32{2, -2, 0, 1, -1})
	if out[0] != 32767 {
		t.Fatalf("positive overflow: got %d", out[0])
	}
	if out[1] != -32768 {
		t.Fatalf("negative overflow: got %d", out[1])
	}
	if out[2] != 0 {
		t.Fatalf("zero: got %d", out[2])
	}
}

func TestSplitWAVProducesValidPieces(t *testing.T) {
	// 3 seconds of silence at 32kHz, split with 600s windows: one piece,
	// resampled to 16kHz mono.
	raw := make([]int16, 3*32000)
	data, err := EncodeWAV(raw, 32000)
	if err != nil {
		t.Fatalf("encode source: %v", err)
	}

	pieces, err := SplitWAV(data)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}

	decoded, rate, channels, err := DecodeWAV(pieces[0].Data)
	if err != nil {
		t.Fatalf("piece is not valid WAV: %v", err)
	}
	if rate != TargetSampleRate || channels != 1 {
		t.Fatalf("expected 16kHz mono, got %d/%d", rate, channels)
	}
	if len(decoded) != 3*TargetSampleRate {
		t.Fatalf("expected %d samples, got %d", 3*TargetSampleRate, len(decoded))
	}
}

func TestSegmenterNumbersFromZero(t *testing.T) {
	seg := NewSegmenter(time.Millisecond, TargetSampleRate)

	seg.Append(make([]float32, TargetSampleRate))
	first, ok, err := seg.Flush()
	if err != nil || !ok {
		t.Fatalf("first flush: ok=%v err=%v", ok, err)
	}
	if first.Index != 0 {
		t.Fatalf("first segment index %d", first.Index)
	}
	if first.Duration != time.Second {
		t.Fatalf("first segment duration %v", first.Duration)
	}
	if _, _, _, err := DecodeWAV(first.Data); err != nil {
		t.Fatalf("segment is not valid WAV: %v", err)
	}

	// An empty flush does not advance the counter.
	if _, ok, _ := seg.Flush(); ok {
		t.Fatal("expected empty flush to return false")
	}

	seg.Append(make([]float32, TargetSampleRate/2))
	second, ok, err := seg.Flush()
	if err != nil || !ok {
		t.Fatalf("second flush: ok=%v err=%v", ok, err)
	}
	if second.Index != 1 {
		t.Fatalf("second segment index %d", second.Index)
	}
}
