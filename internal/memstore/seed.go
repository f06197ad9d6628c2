package memstore

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/util"
)

// SeedDemo loads a small fixed roster so the database-less backend is usable
// out of the box. Ids are stable across restarts; password hashes are
// computed at startup so no hash material lives in the source tree.
func SeedDemo(catalog *Catalog) error {
	now := time.Now()
	groupA := "group-a"

	catalog.SeedGroup(model.Group{ID: groupA, Name: "Group A", CreatedAt: now})

	demoUsers := []struct {
		id         string
		identifier string
		password   string
		name       string
		email      string
		role       model.Role
		groupID    *string
	}{
		{"user-admin", "admin", "admin-demo", "Site Admin", "admin@example.edu", model.RoleAdmin, nil},
		{"user-teacher", "t1000", "teacher-demo", "Dana Rivera", "d.rivera@example.edu", model.RoleTeacher, nil},
		{"user-student-1", "s1001", "student-demo", "Alex Kim", "a.kim@example.edu", model.RoleStudent, &groupA},
		{"user-student-2", "s1002", "student-demo", "Jordan Lee", "j.lee@example.edu", model.RoleStudent, &groupA},
	}

	for _, du := range demoUsers {
		hash, err := util.HashPassword(du.password)
		if err != nil {
			return err
		}
		catalog.SeedUser(model.User{
			ID:           du.id,
			Identifier:   du.identifier,
			PasswordHash: hash,
			Name:         du.name,
			Email:        du.email,
			Role:         du.role,
			GroupID:      du.groupID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	demoLessons := []model.Lesson{
		{ID: "lesson-algo", Name: "Algorithms", Day: "monday", StartsAt: "09:00", EndsAt: "10:30", Room: "201", TeacherID: "user-teacher", GroupID: &groupA, CreatedAt: now},
		{ID: "lesson-db", Name: "Databases", Day: "wednesday", StartsAt: "11:00", EndsAt: "12:30", Room: "105", TeacherID: "user-teacher", GroupID: &groupA, CreatedAt: now},
		{ID: "lesson-net", Name: "Networks", Day: "friday", StartsAt: "09:00", EndsAt: "10:30", Room: "201", TeacherID: "user-teacher", GroupID: &groupA, CreatedAt: now},
	}
	for _, lesson := range demoLessons {
		catalog.SeedLesson(lesson)
	}

	log.Info().
		Int("users", len(demoUsers)).
		Int("lessons", len(demoLessons)).
		Msg("seeded in-memory catalog with demo data")
	return nil
}
