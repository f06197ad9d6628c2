package model

import "time"

// Lesson is immutable reference data: the weekly schedule slot a code is
// minted for. The core never mutates lessons.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Day       string    `db:"day" json:"day"`
	StartsAt  string    `db:"starts_at" json:"startsAt"`
	EndsAt    string    `db:"ends_at" json:"endsAt"`
	Room      string    `db:"room" json:"room"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	GroupID   *string   `db:"group_id" json:"groupId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// WeeklySchedule groups lessons by day of week for the schedule view.
type WeeklySchedule map[string][]Lesson
