package audio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

func TestSplitSmallBufferSinglePiece(t *testing.T) {
	buf := make([]byte, 10*1024*1024)
	for i := range buf {
		buf[i] = byte(i % 251)
	}

	pieces, err := Split(buf, "fundur.mp3")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Index != 0 || pieces[0].TotalPieces != 1 {
		t.Fatalf("unexpected numbering: index=%d total=%d", pieces[0].Index, pieces[0].TotalPieces)
	}
	if pieces[0].Filename != "fundur.mp3" {
		t.Fatalf("single piece should keep original filename, got %q", pieces[0].Filename)
	}
	if !bytes.Equal(pieces[0].Data, buf) {
		t.Fatal("single piece should equal input")
	}
}

func TestSplitLargeBufferRoundTrip(t *testing.T) {
	buf := make([]byte, 45*1024*1024)
	for i := range buf {
		buf[i] = byte(i % 257)
	}

	pieces, err := Split(buf, "fyrirlestur.webm")
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}

	var joined []byte
	for i, p := range pieces {
		if p.Index != i {
			t.Fatalf("piece %d has index %d", i, p.Index)
		}
		if p.TotalPieces != 3 {
			t.Fatalf("piece %d has totalPieces %d", i, p.TotalPieces)
		}
		if len(p.Data) > MaxPieceBytes {
			t.Fatalf("piece %d exceeds ceiling: %d bytes", i, len(p.Data))
		}
		joined = append(joined, p.Data...)
	}

	if pieces[0].Filename != "part-0.webm" || pieces[2].Filename != "part-2.webm" {
		t.Fatalf("unexpected filenames: %q %q", pieces[0].Filename, pieces[2].Filename)
	}
	if !bytes.Equal(joined, buf) {
		t.Fatal("concatenated pieces do not reproduce the input")
	}
}

func TestSplitRejectsOversizedInput(t *testing.T) {
	buf := make([]byte, 201*1024*1024)

	_, err := Split(buf, "langur.webm")
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}
