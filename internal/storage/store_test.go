package storage

import (
	"errors"
	"testing"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetSession(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateSession("owner-1", "Standup", domain.ProfileMeeting)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != domain.StatusActive {
		t.Fatalf("new session status %q", created.Status)
	}

	got, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "owner-1" || got.Name != "Standup" || got.Profile != domain.ProfileMeeting {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSession("missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsByOwnerNewestFirst(t *testing.T) {
	store := openTestStore(t)

	first, _ := store.CreateSession("owner-1", "first", domain.ProfileMeeting)
	second, _ := store.CreateSession("owner-1", "second", domain.ProfileLecture)
	if _, err := store.CreateSession("owner-2", "other", domain.ProfileMeeting); err != nil {
		t.Fatalf("create: %v", err)
	}

	sessions, err := store.ListSessionsByOwner("owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", sessions[0].Name, sessions[1].Name)
	}
}

func TestStatusTransitionsAreTerminal(t *testing.T) {
	store := openTestStore(t)
	sess, _ := store.CreateSession("owner-1", "s", domain.ProfileMeeting)

	completed := domain.StatusCompleted
	summary := "summary"
	updated, err := store.UpdateSession(sess.ID, domain.SessionUpdate{Status: &completed, FinalSummary: &summary})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != domain.StatusCompleted || updated.FinalSummary != "summary" {
		t.Fatalf("unexpected session after completion: %+v", updated)
	}

	// completed -> failed is rejected.
	failed := domain.StatusFailed
	if _, err := store.UpdateSession(sess.ID, domain.SessionUpdate{Status: &failed}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// completed -> active is rejected.
	active := domain.StatusActive
	if _, err := store.UpdateSession(sess.ID, domain.SessionUpdate{Status: &active}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Re-asserting completed with a new summary is allowed: finalization
	// is deliberately re-runnable.
	override := "second summary"
	redone, err := store.UpdateSession(sess.ID, domain.SessionUpdate{Status: &completed, FinalSummary: &override})
	if err != nil {
		t.Fatalf("re-finalize: %v", err)
	}
	if redone.FinalSummary != "second summary" {
		t.Fatalf("expected overwritten summary, got %q", redone.FinalSummary)
	}
}

func TestChunksOrderedBySeqAndImmutableOrder(t *testing.T) {
	store := openTestStore(t)
	sess, _ := store.CreateSession("owner-1", "s", domain.ProfileMeeting)

	// Insert out of order; read-back follows seq.
	for _, seq := range []int{2, 0, 1} {
		if _, err := store.CreateChunk(sess.ID, seq, "t", 10); err != nil {
			t.Fatalf("create chunk %d: %v", seq, err)
		}
	}

	chunks, err := store.ListChunks(sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Seq != i {
			t.Fatalf("position %d has seq %d", i, c.Seq)
		}
	}
}

func TestDuplicateSeqRejected(t *testing.T) {
	store := openTestStore(t)
	sess, _ := store.CreateSession("owner-1", "s", domain.ProfileMeeting)

	if _, err := store.CreateChunk(sess.ID, 0, "a", 0); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := store.CreateChunk(sess.ID, 0, "b", 0); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The same seq in another session is fine.
	other, _ := store.CreateSession("owner-1", "other", domain.ProfileMeeting)
	if _, err := store.CreateChunk(other.ID, 0, "c", 0); err != nil {
		t.Fatalf("other session: %v", err)
	}
}

func TestNotesReadBackInCreationOrder(t *testing.T) {
	store := openTestStore(t)
	sess, _ := store.CreateSession("owner-1", "s", domain.ProfileMeeting)

	chunk, _ := store.CreateChunk(sess.ID, 0, "t", 0)
	if _, err := store.CreateNote(sess.ID, chunk.ID, "first", "sum1"); err != nil {
		t.Fatalf("note 1: %v", err)
	}
	if _, err := store.CreateNote(sess.ID, "", "second", "sum2"); err != nil {
		t.Fatalf("note 2: %v", err)
	}

	notes, err := store.ListNotes(sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Content != "first" || notes[1].Content != "second" {
		t.Fatalf("unexpected order: %q, %q", notes[0].Content, notes[1].Content)
	}
	if notes[0].ChunkID != chunk.ID {
		t.Fatalf("expected chunk reference, got %q", notes[0].ChunkID)
	}
	if notes[1].ChunkID != "" {
		t.Fatalf("expected empty chunk reference, got %q", notes[1].ChunkID)
	}
}

func TestTouchSessionBumpsUpdatedAt(t *testing.T) {
	store := openTestStore(t)
	sess, _ := store.CreateSession("owner-1", "s", domain.ProfileMeeting)

	if err := store.TouchSession(sess.ID, 20); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, _ := store.GetSession(sess.ID)
	if got.TotalSeconds != 20 {
		t.Fatalf("expected 20 accumulated seconds, got %d", got.TotalSeconds)
	}
	if got.UpdatedAt < sess.UpdatedAt {
		t.Fatalf("updated_at went backwards")
	}

	if err := store.TouchSession("missing", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
