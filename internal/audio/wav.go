package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for uncompressed
// mono PCM-16 data.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

const wavHeaderSize = 44

// EncodeWAV wraps mono PCM-16 samples in a minimal WAV container so each
// encoded window is an independently valid, decodable audio file.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty sample buffer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("write wav data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV reads a mono or multi-channel PCM-16 WAV file back into
// samples and reports its sample rate. Malformed input is a DecodeFailed
// condition the caller surfaces as a retryable error.
func DecodeWAV(data []byte) (samples []int16, sampleRate int, channels int, err error) {
	if len(data) < wavHeaderSize {
		return nil, 0, 0, fmt.Errorf("wav data too short (%d bytes): %w", len(data), domain.ErrDecodeFailed)
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(data[:wavHeaderSize]), binary.LittleEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("read wav header: %w", domain.ErrDecodeFailed)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a RIFF/WAVE file: %w", domain.ErrDecodeFailed)
	}
	if header.AudioFormat != 1 || header.BitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("unsupported wav format %d/%d-bit: %w",
			header.AudioFormat, header.BitsPerSample, domain.ErrDecodeFailed)
	}
	if header.NumChannels == 0 || header.SampleRate == 0 {
		return nil, 0, 0, fmt.Errorf("invalid wav header: %w", domain.ErrDecodeFailed)
	}

	payload := data[wavHeaderSize:]
	count := int(header.Subchunk2Size) / 2
	if count > len(payload)/2 {
		count = len(payload) / 2
	}

	samples = make([]int16, count)
	if err := binary.Read(bytes.NewReader(payload[:count*2]), binary.LittleEndian, &samples); err != nil {
		return nil, 0, 0, fmt.Errorf("read wav samples: %w", domain.ErrDecodeFailed)
	}
	return samples, int(header.SampleRate), int(header.NumChannels), nil
}
