package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
	"github.com/RagnarAgustsson/HandritiB/internal/metrics"
	"github.com/RagnarAgustsson/HandritiB/internal/services"
)

// Finalizer closes a session out: one consolidated summary over all its
// transcripts, then the terminal completed status.
type Finalizer struct {
	store    Store
	ai       Intelligence
	notifier services.Notifier
	metrics  *metrics.Metrics
}

func NewFinalizer(store Store, ai Intelligence, notifier services.Notifier, m *metrics.Metrics) *Finalizer {
	return &Finalizer{store: store, ai: ai, notifier: notifier, metrics: m}
}

// Finalize reads all chunks in sequence order, summarizes the non-empty
// transcripts in one unwindowed completion and persists the result with
// status completed. A session with nothing transcribed completes with an
// empty summary; that is a legitimate terminal state, not an error.
//
// Finalizing an already completed session recomputes and overwrites the
// summary. The one-way guard in the store only blocks changing a terminal
// status, not re-asserting it.
func (f *Finalizer) Finalize(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := f.store.GetSession(sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	chunks, err := f.store.ListChunks(sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	var transcripts []string
	for _, c := range chunks {
		if t := strings.TrimSpace(c.Transcript); t != "" {
			transcripts = append(transcripts, t)
		}
	}

	summary := ""
	if len(transcripts) > 0 {
		summary, err = f.ai.GenerateFinalSummary(ctx, transcripts, sess.Profile)
		if err != nil {
			return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, err)
		}
	}

	completed := domain.StatusCompleted
	updated, err := f.store.UpdateSession(sessionID, domain.SessionUpdate{
		Status:       &completed,
		FinalSummary: &summary,
	})
	if err != nil {
		return domain.Session{}, err
	}

	if f.metrics != nil {
		f.metrics.SessionsFinalized.Inc()
	}
	if f.notifier != nil && summary != "" {
		f.notifier.SummaryReady(updated)
	}
	return updated, nil
}

// Fail marks a session failed after an unrecoverable pipeline error. The
// transition is terminal; a failed session is never resumed by the core.
func (f *Finalizer) Fail(sessionID string) error {
	failed := domain.StatusFailed
	if _, err := f.store.UpdateSession(sessionID, domain.SessionUpdate{Status: &failed}); err != nil {
		return err
	}
	if f.metrics != nil {
		f.metrics.SessionsFailed.Inc()
	}
	return nil
}
