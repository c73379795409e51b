package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// Store persists sessions, chunks and notes in SQLite. It is data access
// only: ownership checks belong to callers that resolve sessions by id.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	profile       TEXT NOT NULL DEFAULT 'meeting',
	status        TEXT NOT NULL DEFAULT 'active',
	final_summary TEXT NOT NULL DEFAULT '',
	total_seconds INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner_id, created_at);

CREATE TABLE IF NOT EXISTS chunks (
	id               TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq              INTEGER NOT NULL,
	transcript       TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	UNIQUE(session_id, seq)
);

CREATE TABLE IF NOT EXISTS notes (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	chunk_id        TEXT REFERENCES chunks(id) ON DELETE SET NULL,
	content         TEXT NOT NULL,
	rolling_summary TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_session ON notes(session_id, created_at);
`

// Open opens (or creates) the database under baseDir with WAL and foreign
// keys enabled, and applies the schema.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(baseDir, "handriti.sqlite")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new active session owned by ownerID.
func (s *Store) CreateSession(ownerID, name string, profile domain.Profile) (domain.Session, error) {
	now := domain.Now()
	sess := domain.Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Profile:   profile,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, owner_id, name, profile, status, final_summary, total_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', 0, ?, ?)
	`, sess.ID, sess.OwnerID, sess.Name, string(sess.Profile), string(sess.Status), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return domain.Session{}, storeErr("insert session", err)
	}
	return sess, nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(id string) (domain.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, name, profile, status, final_summary, total_seconds, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// ListSessionsByOwner returns all of one owner's sessions, newest first.
func (s *Store) ListSessionsByOwner(ownerID string) ([]domain.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, owner_id, name, profile, status, final_summary, total_seconds, created_at, updated_at
		FROM sessions
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, ownerID)
	if err != nil {
		return nil, storeErr("query sessions", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateSession applies a partial update and refreshes the updated
// timestamp. Status changes away from a terminal state are rejected with
// ErrConflict; re-asserting the same terminal status is allowed, which is
// what lets finalization overwrite a completed session's summary.
func (s *Store) UpdateSession(id string, upd domain.SessionUpdate) (domain.Session, error) {
	existing, err := s.GetSession(id)
	if err != nil {
		return domain.Session{}, err
	}

	if upd.Status != nil && existing.Status != domain.StatusActive && *upd.Status != existing.Status {
		return domain.Session{}, fmt.Errorf("session %s is %s: %w", id, existing.Status, domain.ErrConflict)
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if upd.FinalSummary != nil {
		existing.FinalSummary = *upd.FinalSummary
	}
	existing.UpdatedAt = domain.Now()

	_, err = s.db.Exec(`
		UPDATE sessions SET name = ?, status = ?, final_summary = ?, updated_at = ? WHERE id = ?
	`, existing.Name, string(existing.Status), existing.FinalSummary, existing.UpdatedAt, id)
	if err != nil {
		return domain.Session{}, storeErr("update session", err)
	}
	return existing, nil
}

// TouchSession bumps the session's updated timestamp and accumulates
// processed audio seconds. Callers treat failures as non-critical.
func (s *Store) TouchSession(id string, addSeconds int) error {
	res, err := s.db.Exec(`
		UPDATE sessions SET updated_at = ?, total_seconds = total_seconds + ? WHERE id = ?
	`, domain.Now(), addSeconds, id)
	if err != nil {
		return storeErr("touch session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateChunk appends one transcribed chunk. A sequence number already
// used within the session fails with ErrConflict; the store never
// renumbers on the caller's behalf.
func (s *Store) CreateChunk(sessionID string, seq int, transcript string, durationSeconds int) (domain.Chunk, error) {
	chunk := domain.Chunk{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Seq:             seq,
		Transcript:      transcript,
		DurationSeconds: durationSeconds,
		CreatedAt:       domain.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO chunks (id, session_id, seq, transcript, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.SessionID, chunk.Seq, chunk.Transcript, chunk.DurationSeconds, chunk.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Chunk{}, fmt.Errorf("chunk seq %d already exists in session %s: %w", seq, sessionID, domain.ErrConflict)
		}
		return domain.Chunk{}, storeErr("insert chunk", err)
	}
	return chunk, nil
}

// ListChunks returns a session's chunks ordered by sequence number.
func (s *Store) ListChunks(sessionID string) ([]domain.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, seq, transcript, duration_seconds, created_at
		FROM chunks
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, storeErr("query chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Seq, &c.Transcript, &c.DurationSeconds, &c.CreatedAt); err != nil {
			return nil, storeErr("scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CreateNote records the derived notes for one chunk. chunkID may be
// empty; the reference is informational only.
func (s *Store) CreateNote(sessionID, chunkID, content, rollingSummary string) (domain.Note, error) {
	note := domain.Note{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		ChunkID:        chunkID,
		Content:        content,
		RollingSummary: rollingSummary,
		CreatedAt:      domain.Now(),
	}

	var chunkRef any
	if chunkID != "" {
		chunkRef = chunkID
	}

	_, err := s.db.Exec(`
		INSERT INTO notes (id, session_id, chunk_id, content, rolling_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, note.ID, note.SessionID, chunkRef, note.Content, note.RollingSummary, note.CreatedAt)
	if err != nil {
		return domain.Note{}, storeErr("insert note", err)
	}
	return note, nil
}

// ListNotes returns a session's notes in creation order, the order the
// live update channel diffs against.
func (s *Store) ListNotes(sessionID string) ([]domain.Note, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, chunk_id, content, rolling_summary, created_at
		FROM notes
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
	if err != nil {
		return nil, storeErr("query notes", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		var chunkID sql.NullString
		if err := rows.Scan(&n.ID, &n.SessionID, &chunkID, &n.Content, &n.RollingSummary, &n.CreatedAt); err != nil {
			return nil, storeErr("scan note", err)
		}
		if chunkID.Valid {
			n.ChunkID = chunkID.String
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var sess domain.Session
	var profile, status string
	err := row.Scan(&sess.ID, &sess.OwnerID, &sess.Name, &profile, &status,
		&sess.FinalSummary, &sess.TotalSeconds, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Session{}, storeErr("scan session", err)
	}
	sess.Profile = domain.Profile(profile)
	sess.Status = domain.Status(status)
	return sess, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStore)
}
