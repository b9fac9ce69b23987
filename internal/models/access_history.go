package models

import "time"

// AccessHistory is an append-only record of a learner consuming course
// content through an enrollment. Exactly one of LessonID or LiveSessionID
// is set.
type AccessHistory struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	EnrollmentID  string    `db:"enrollment_id" json:"enrollmentId"`
	LessonID      *string   `db:"lesson_id" json:"lessonId,omitempty"`
	LiveSessionID *string   `db:"live_session_id" json:"liveSessionId,omitempty"`
	AccessedAt    time.Time `db:"accessed_at" json:"accessedAt"`
}

// AccessHistoryFilter provides AND-combined filters for listing access events.
type AccessHistoryFilter struct {
	UserID        string
	EnrollmentID  string
	LessonID      string
	LiveSessionID string
	Page          int
	PageSize      int
}
