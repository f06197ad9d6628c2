package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/attendance-server-go/internal/memstore"
	"github.com/rollcall/attendance-server-go/internal/model"
)

func TestCleanupJob(t *testing.T) {
	t.Run("removes expired refresh sessions and keeps live ones", func(t *testing.T) {
		ctx := context.Background()
		catalog := memstore.NewCatalog()
		store := memstore.New()
		sessions := catalog.Sessions()

		_, err := sessions.Create(ctx, model.CreateRefreshSessionParams{
			UserID: "user-1", TokenHash: "hash-stale", ExpiresAt: time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
		_, err = sessions.Create(ctx, model.CreateRefreshSessionParams{
			UserID: "user-1", TokenHash: "hash-live", ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		job := NewCleanupJob(sessions, store.Codes(), time.Minute)
		job.cleanup()

		live, err := sessions.FindByTokenHash(ctx, "hash-live")
		require.NoError(t, err)
		assert.NotNil(t, live)

		n, err := sessions.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "expired sessions should already be gone")
	})

	t.Run("never deletes codes, lapsed or not", func(t *testing.T) {
		ctx := context.Background()
		catalog := memstore.NewCatalog()
		store := memstore.New()

		_, err := store.Codes().Create(ctx, model.CreateCodeParams{
			LessonID:  "lesson-1",
			TeacherID: "teacher-1",
			Code:      "48213",
			IssuedAt:  time.Now().Add(-time.Hour),
			ExpiresAt: time.Now().Add(-45 * time.Minute),
		})
		require.NoError(t, err)

		job := NewCleanupJob(catalog.Sessions(), store.Codes(), time.Minute)
		job.cleanup()

		codes, err := store.Codes().ListByLessonID(ctx, "lesson-1")
		require.NoError(t, err)
		assert.Len(t, codes, 1, "lapsed codes stay for the audit trail")
	})

	t.Run("start and stop do not race", func(t *testing.T) {
		catalog := memstore.NewCatalog()
		store := memstore.New()

		job := NewCleanupJob(catalog.Sessions(), store.Codes(), 10*time.Millisecond)
		job.Start()
		time.Sleep(30 * time.Millisecond)
		job.Stop()
	})
}
