package model

import "time"

// GeneratedCode is one issued attendance code. Codes are never deleted:
// a code leaves circulation by the Active flag flipping to false (explicit
// stop or supersede) or by its expiry passing, which every read path checks.
type GeneratedCode struct {
	ID        string    `db:"id" json:"id"`
	LessonID  string    `db:"lesson_id" json:"lessonId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	Code      string    `db:"code" json:"code"`
	IssuedAt  time.Time `db:"issued_at" json:"issuedAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	Active    bool      `db:"is_active" json:"isActive"`
}

func (c *GeneratedCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Redeemable reports whether the code can still be exchanged for an
// attendance record at the given instant. Expiry is evaluated lazily here;
// the Active flag is never eagerly flipped by a timer.
func (c *GeneratedCode) Redeemable(now time.Time) bool {
	return c.Active && !c.Expired(now)
}

type CreateCodeParams struct {
	LessonID  string
	TeacherID string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
