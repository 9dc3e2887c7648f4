package model

import "time"

// QuestEvent names the user action a quest counts.
type QuestEvent string

const (
	QuestEventTap       QuestEvent = "tap"
	QuestEventPurchase  QuestEvent = "purchase"
	QuestEventPageVisit QuestEvent = "page_visit"
)

// QuestInstance is one user's progress against a quest definition for the
// current rotation. Completed and Claimed are write-once.
type QuestInstance struct {
	UserTelegramID int64
	QuestID        string
	Event          QuestEvent
	Progress       int
	Target         int
	Completed      bool
	Claimed        bool
	RotatedAt      time.Time
}

// Advance accumulates progress and flips Completed once the target is
// reached. Progress past the target is discarded; a completed instance
// never moves again.
func (q *QuestInstance) Advance(delta int) {
	if q.Completed || delta <= 0 {
		return
	}
	q.Progress += delta
	if q.Progress >= q.Target {
		q.Progress = q.Target
		q.Completed = true
	}
}

// QuestRotation records when a user's daily quest set was last replaced.
type QuestRotation struct {
	UserTelegramID int64
	LastRotated    *time.Time
}
