// Package pipeline turns audio pieces into persisted chunks and notes and
// closes sessions out with a consolidated summary.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
	"github.com/RagnarAgustsson/HandritiB/internal/metrics"
	"github.com/RagnarAgustsson/HandritiB/internal/services"
)

// Store is the subset of session store operations the pipeline needs.
type Store interface {
	CreateSession(ownerID, name string, profile domain.Profile) (domain.Session, error)
	GetSession(id string) (domain.Session, error)
	UpdateSession(id string, upd domain.SessionUpdate) (domain.Session, error)
	TouchSession(id string, addSeconds int) error
	CreateChunk(sessionID string, seq int, transcript string, durationSeconds int) (domain.Chunk, error)
	ListChunks(sessionID string) ([]domain.Chunk, error)
	CreateNote(sessionID, chunkID, content, rollingSummary string) (domain.Note, error)
}

// Intelligence is the external inference capability: speech to text and
// text to structured notes or prose.
type Intelligence interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	GenerateNotes(ctx context.Context, transcript string, profile domain.Profile, prior []string) (notes, rollingSummary string, err error)
	GenerateFinalSummary(ctx context.Context, transcripts []string, profile domain.Profile) (string, error)
}

// Input is one chunk processing request. Seq is caller-assigned; the
// pipeline neither validates gaps nor reorders.
type Input struct {
	SessionID       string
	Seq             int
	Audio           []byte
	Filename        string
	Profile         domain.Profile
	DurationSeconds int
}

// Result is the outcome of one chunk processing invocation. A zero Result
// with a nil error means transcription produced no usable text and
// nothing was persisted.
type Result struct {
	Transcript     string
	Notes          string
	RollingSummary string
	ChunkID        string
}

// Processor runs the per-chunk pipeline: transcribe, persist the chunk,
// gather bounded prior context, generate notes, persist the note.
type Processor struct {
	store   Store
	ai      Intelligence
	metrics *metrics.Metrics
}

func NewProcessor(store Store, ai Intelligence, m *metrics.Metrics) *Processor {
	return &Processor{store: store, ai: ai, metrics: m}
}

// ProcessChunk processes one audio piece for a session. Steps run
// sequentially because context gathering depends on this chunk's write.
// Concurrent invocations for one session are allowed; two processors may
// each miss the other's in-flight chunk when gathering context, which is
// acceptable for a best-effort recency window.
func (p *Processor) ProcessChunk(ctx context.Context, in Input) (Result, error) {
	start := time.Now()

	transcript, err := p.ai.Transcribe(ctx, in.Audio, in.Filename)
	if err != nil {
		if p.metrics != nil {
			p.metrics.TranscriptionFailures.Inc()
		}
		return Result{}, fmt.Errorf("%w: %v", domain.ErrTranscriptionFailed, err)
	}

	// Silence is not an error: nothing is persisted and the caller moves
	// on to the next piece.
	if strings.TrimSpace(transcript) == "" {
		if p.metrics != nil {
			p.metrics.EmptyTranscripts.Inc()
		}
		return Result{}, nil
	}

	chunk, err := p.store.CreateChunk(in.SessionID, in.Seq, transcript, in.DurationSeconds)
	if err != nil {
		return Result{}, err
	}

	prior, err := p.priorContext(in.SessionID, chunk.ID)
	if err != nil {
		return Result{}, err
	}

	notes, rollingSummary, err := p.ai.GenerateNotes(ctx, transcript, in.Profile, prior)
	if err != nil {
		if p.metrics != nil {
			p.metrics.SummarizationFailures.Inc()
		}
		return Result{}, fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, err)
	}

	if _, err := p.store.CreateNote(in.SessionID, chunk.ID, notes, rollingSummary); err != nil {
		return Result{}, err
	}

	// Non-critical: a lost timestamp touch never fails the chunk.
	if err := p.store.TouchSession(in.SessionID, in.DurationSeconds); err != nil {
		log.Printf("touch session %s: %v", in.SessionID, err)
	}

	if p.metrics != nil {
		p.metrics.ChunksProcessed.Inc()
		p.metrics.ChunkProcessingSeconds.Observe(time.Since(start).Seconds())
	}

	return Result{
		Transcript:     transcript,
		Notes:          notes,
		RollingSummary: rollingSummary,
		ChunkID:        chunk.ID,
	}, nil
}

// priorContext reads back all persisted chunks except the one just
// written and keeps the transcripts of the most recent
// services.ContextWindow of them, oldest first. Recency follows sequence
// order, which holds as long as callers submit pieces in increasing order.
func (p *Processor) priorContext(sessionID, excludeChunkID string) ([]string, error) {
	chunks, err := p.store.ListChunks(sessionID)
	if err != nil {
		return nil, err
	}

	var transcripts []string
	for _, c := range chunks {
		if c.ID == excludeChunkID {
			continue
		}
		if t := strings.TrimSpace(c.Transcript); t != "" {
			transcripts = append(transcripts, t)
		}
	}

	if len(transcripts) > services.ContextWindow {
		transcripts = transcripts[len(transcripts)-services.ContextWindow:]
	}
	return transcripts, nil
}
