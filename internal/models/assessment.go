package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionType distinguishes auto-gradable questions from free-text ones.
type QuestionType string

const (
	QuestionTypeObjective QuestionType = "OBJECTIVE"
	QuestionTypeEssay     QuestionType = "ESSAY"
)

// Assessment is a time-boxed test attached to a course. Submissions are
// accepted only within [StartDate, EndDate], inclusive on both ends.
type Assessment struct {
	ID          string     `db:"id" json:"id"`
	CourseID    string     `db:"course_id" json:"courseId"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	StartDate   time.Time  `db:"start_date" json:"startDate"`
	EndDate     time.Time  `db:"end_date" json:"endDate"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	Questions   []Question `db:"-" json:"questions,omitempty"`
}

// Question belongs to an assessment. CorrectAnswer is only meaningful for
// OBJECTIVE questions; ESSAY questions are never auto-scored.
type Question struct {
	ID            string         `db:"id" json:"id"`
	AssessmentID  string         `db:"assessment_id" json:"assessmentId"`
	Type          QuestionType   `db:"type" json:"type"`
	Text          string         `db:"text" json:"text"`
	Options       pq.StringArray `db:"options" json:"options,omitempty"`
	CorrectAnswer *string        `db:"correct_answer" json:"correctAnswer,omitempty"`
	Points        float64        `db:"points" json:"points"`
	Order         int            `db:"position" json:"order"`
}
