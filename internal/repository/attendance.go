package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type AttendanceRepository interface {
	// Create appends a record. Returns ErrDuplicate if a record for the same
	// (student, lesson, code) already exists; nothing is written in that case.
	Create(ctx context.Context, params model.CreateAttendanceParams) (*model.AttendanceRecord, error)
	ExistsForCode(ctx context.Context, studentID, lessonID, codeID string) (bool, error)
	ListByLessonID(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error)
	ListByStudentID(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
}

type attendanceDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type attendanceRepo struct {
	db attendanceDB
}

func NewAttendanceRepository(db *sqlx.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, params model.CreateAttendanceParams) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO attendance_records (lesson_id, student_id, code_id, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.LessonID, params.StudentID, params.CodeID, params.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ExistsForCode(ctx context.Context, studentID, lessonID, codeID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM attendance_records
		WHERE student_id = $1 AND lesson_id = $2 AND code_id = $3
	`, studentID, lessonID, codeID)
	return count > 0, err
}

func (r *attendanceRepo) ListByLessonID(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM attendance_records
		WHERE lesson_id = $1
		ORDER BY submitted_at
	`, lessonID)
	return records, err
}

func (r *attendanceRepo) ListByStudentID(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM attendance_records
		WHERE student_id = $1
		ORDER BY submitted_at DESC
	`, studentID)
	return records, err
}
