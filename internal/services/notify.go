package services

import (
	"log"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// Notifier is told when a session's final summary is ready. Delivery is
// best-effort: the finalizer never fails because a notification did.
// Outbound email lives behind this boundary and outside this service.
type Notifier interface {
	SummaryReady(sess domain.Session)
}

// LogNotifier is the default Notifier; it only records that a summary
// became available.
type LogNotifier struct{}

func (LogNotifier) SummaryReady(sess domain.Session) {
	log.Printf("final summary ready for session %s (%q, %d chars)", sess.ID, sess.Name, len(sess.FinalSummary))
}
