package model

import "time"

// AttendanceRecord is append-only: created once by a successful code
// redemption and never updated or deleted.
type AttendanceRecord struct {
	ID          string    `db:"id" json:"id"`
	LessonID    string    `db:"lesson_id" json:"lessonId"`
	StudentID   string    `db:"student_id" json:"studentId"`
	CodeID      string    `db:"code_id" json:"codeId"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

type CreateAttendanceParams struct {
	LessonID    string
	StudentID   string
	CodeID      string
	SubmittedAt time.Time
}
