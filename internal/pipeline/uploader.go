package pipeline

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/RagnarAgustsson/HandritiB/internal/audio"
	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// Uploader is the whole-file pipeline: split an uploaded recording into
// pieces, process each in order and finalize in one pass.
type Uploader struct {
	store     Store
	processor *Processor
	finalizer *Finalizer
}

func NewUploader(store Store, processor *Processor, finalizer *Finalizer) *Uploader {
	return &Uploader{store: store, processor: processor, finalizer: finalizer}
}

// UploadResult reports the session the upload produced and how many
// pieces it was split into.
type UploadResult struct {
	Session domain.Session
	Pieces  int
}

// ProcessUpload creates a session for the uploaded file, byte-splits it,
// runs the chunk processor over every piece sequentially and finalizes.
//
// The size ceiling is enforced before the session exists and before any
// remote call. Any error after that marks the session failed and is
// returned to the caller; the failed session stays visible in listings.
func (u *Uploader) ProcessUpload(ctx context.Context, ownerID, name string, profile domain.Profile, data []byte, filename string) (UploadResult, error) {
	pieces, err := audio.Split(data, filename)
	if err != nil {
		return UploadResult{}, err
	}

	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		if name == "" {
			name = "Upload"
		}
	}

	sess, err := u.store.CreateSession(ownerID, name, profile)
	if err != nil {
		return UploadResult{}, err
	}

	for _, piece := range pieces {
		_, err := u.processor.ProcessChunk(ctx, Input{
			SessionID: sess.ID,
			Seq:       piece.Index,
			Audio:     piece.Data,
			Filename:  piece.Filename,
			Profile:   profile,
		})
		if err != nil {
			u.fail(sess.ID)
			return UploadResult{Session: sess, Pieces: len(pieces)}, err
		}
	}

	finalized, err := u.finalizer.Finalize(ctx, sess.ID)
	if err != nil {
		u.fail(sess.ID)
		return UploadResult{Session: sess, Pieces: len(pieces)}, err
	}

	return UploadResult{Session: finalized, Pieces: len(pieces)}, nil
}

func (u *Uploader) fail(sessionID string) {
	if err := u.finalizer.Fail(sessionID); err != nil {
		log.Printf("mark session %s failed: %v", sessionID, err)
	}
}
