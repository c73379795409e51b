package audio

import (
	"fmt"
	"strings"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// The transcription API caps each request at 25MB; 20MB pieces leave a
// safety margin. Inputs above the hard ceiling are rejected before any
// network call.
const (
	MaxPieceBytes = 20 * 1024 * 1024
	MaxInputBytes = 200 * 1024 * 1024
)

// Piece is one bounded-size unit of audio produced by splitting. Index is
// zero-based; TotalPieces is the same on every piece of one split.
type Piece struct {
	Data        []byte
	Index       int
	TotalPieces int
	Filename    string
}

// Split slices a raw audio buffer into pieces of at most MaxPieceBytes.
// The slicing is purely mechanical and ignores container frame boundaries;
// the transcription service is tolerant of partial webm/mp4 fragments,
// which is what makes this work without decoding.
//
// A buffer at or below the per-piece ceiling comes back as a single piece
// carrying the original filename. Concatenating the pieces' payloads in
// index order reproduces the input exactly.
func Split(buf []byte, originalFilename string) ([]Piece, error) {
	if int64(len(buf)) > MaxInputBytes {
		return nil, fmt.Errorf("input is %dMB, ceiling is %dMB: %w",
			len(buf)/1024/1024, MaxInputBytes/1024/1024, domain.ErrPayloadTooLarge)
	}

	if len(buf) <= MaxPieceBytes {
		return []Piece{{Data: buf, Index: 0, TotalPieces: 1, Filename: originalFilename}}, nil
	}

	ext := "webm"
	if idx := strings.LastIndex(originalFilename, "."); idx >= 0 && idx < len(originalFilename)-1 {
		ext = originalFilename[idx+1:]
	}

	var pieces []Piece
	for offset, index := 0, 0; offset < len(buf); index++ {
		end := offset + MaxPieceBytes
		if end > len(buf) {
			end = len(buf)
		}
		pieces = append(pieces, Piece{
			Data:     buf[offset:end],
			Index:    index,
			Filename: fmt.Sprintf("part-%d.%s", index, ext),
		})
		offset = end
	}

	for i := range pieces {
		pieces[i].TotalPieces = len(pieces)
	}
	return pieces, nil
}
