package domain

import "time"

// Profile selects the instruction template used when turning transcripts
// into notes and summaries.
type Profile string

const (
	ProfileMeeting   Profile = "meeting"
	ProfileLecture   Profile = "lecture"
	ProfileInterview Profile = "interview"
	ProfileFreeform  Profile = "freeform"
)

// ParseProfile returns the matching profile, defaulting to meeting for
// empty input and rejecting anything outside the known set.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileMeeting, ProfileLecture, ProfileInterview, ProfileFreeform:
		return Profile(s), nil
	case "":
		return ProfileMeeting, nil
	}
	return "", ErrUnknownProfile
}

// Status is the session lifecycle state. Transitions are one-way:
// active -> completed or active -> failed, both terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Session is one recording or upload effort and its aggregate results.
type Session struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"ownerId"`
	Name         string  `json:"name"`
	Profile      Profile `json:"profile"`
	Status       Status  `json:"status"`
	FinalSummary string  `json:"finalSummary"`
	TotalSeconds int     `json:"totalSeconds"`
	CreatedAt    int64   `json:"createdAt"`
	UpdatedAt    int64   `json:"updatedAt"`
}

// Chunk is one transcribed audio segment. Chunks are append-only: once
// written they are never renumbered, reordered or mutated.
type Chunk struct {
	ID              string `json:"id"`
	SessionID       string `json:"sessionId"`
	Seq             int    `json:"seq"`
	Transcript      string `json:"transcript"`
	DurationSeconds int    `json:"durationSeconds"`
	CreatedAt       int64  `json:"createdAt"`
}

// Note holds the structured notes and rolling summary derived from one
// chunk. ChunkID is a weak reference kept for lookup only; a note whose
// chunk is gone still stands on its own.
type Note struct {
	ID             string `json:"id"`
	SessionID      string `json:"sessionId"`
	ChunkID        string `json:"chunkId,omitempty"`
	Content        string `json:"content"`
	RollingSummary string `json:"rollingSummary"`
	CreatedAt      int64  `json:"createdAt"`
}

// SessionUpdate describes a partial session mutation. Nil fields are left
// untouched; the store always refreshes the updated timestamp.
type SessionUpdate struct {
	Name         *string
	Status       *Status
	FinalSummary *string
}

// Now returns the current time as a unix timestamp in milliseconds, the
// resolution all entity timestamps use.
func Now() int64 {
	return time.Now().UnixMilli()
}
