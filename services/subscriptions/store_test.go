package subscriptions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) *Store {
	return NewStore(testutils.SetupTestDB(t), nil)
}

func TestStore_UpsertVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("creates row", func(t *testing.T) {
		store := newTestStore(t)

		err := store.UpsertVerification(ctx, &models.Subscription{
			UserID: "u1", City: "Toronto", Email: "a@example.com",
			WantsNewIssues: true, VerifyToken: strPtr("tok-1"),
		})
		require.NoError(t, err)

		sub, err := store.Get(ctx, "u1", "Toronto")
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", sub.Email)
		assert.True(t, sub.WantsNewIssues)
		assert.False(t, sub.WantsResolved)
		require.NotNil(t, sub.VerifyToken)
		assert.Equal(t, "tok-1", *sub.VerifyToken)
		assert.False(t, sub.Verified())
	})

	t.Run("resubmission keeps one row and resets verification", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{
			UserID: "u1", City: "Toronto", Email: "a@example.com", WantsNewIssues: true, VerifyToken: strPtr("tok-1"),
		}))
		_, err := store.Redeem(ctx, "tok-1", time.Now())
		require.NoError(t, err)

		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{
			UserID: "u1", City: "Toronto", Email: "b@example.com", WantsResolved: true, VerifyToken: strPtr("tok-2"),
		}))

		var count int64
		require.NoError(t, store.db.Model(&models.Subscription{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		sub, err := store.Get(ctx, "u1", "Toronto")
		require.NoError(t, err)
		assert.Equal(t, "b@example.com", sub.Email)
		assert.False(t, sub.WantsNewIssues)
		assert.True(t, sub.WantsResolved)
		assert.Equal(t, "tok-2", *sub.VerifyToken)
		assert.Nil(t, sub.VerifiedAt)
	})

	t.Run("different cities are separate rows", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{UserID: "u1", City: "Toronto", Email: "a@example.com", VerifyToken: strPtr("t1")}))
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{UserID: "u1", City: "Ottawa", Email: "a@example.com", VerifyToken: strPtr("t2")}))

		var count int64
		require.NoError(t, store.db.Model(&models.Subscription{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestStore_SavePreferences(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	existing := testutils.CreateSubscription(t, store.db, "u1", "Toronto", "a@example.com", true, true, false)

	err := store.SavePreferences(ctx, &models.Subscription{
		UserID: "u1", City: "Toronto", Email: "new@example.com", WantsNewIssues: false, WantsResolved: true,
	})
	require.NoError(t, err)

	sub, err := store.Get(ctx, "u1", "Toronto")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sub.ID)
	assert.Equal(t, "new@example.com", sub.Email)
	assert.False(t, sub.WantsNewIssues)
	assert.True(t, sub.WantsResolved)
	assert.True(t, sub.Verified(), "verification state must survive a preference save")

	require.NoError(t, store.SavePreferences(ctx, &models.Subscription{UserID: "u2", City: "Toronto", Email: "c@example.com", WantsNewIssues: true}))
	fresh, err := store.Get(ctx, "u2", "Toronto")
	require.NoError(t, err)
	assert.False(t, fresh.Verified())
	assert.Nil(t, fresh.VerifyToken)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nobody", "Toronto")

	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestStore_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps and clears token", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{UserID: "u1", City: "Toronto", Email: "a@example.com", VerifyToken: strPtr("tok")}))
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		sub, err := store.Redeem(ctx, "tok", now)

		require.NoError(t, err)
		assert.Equal(t, "u1", sub.UserID)
		assert.Nil(t, sub.VerifyToken)

		stored, err := store.Get(ctx, "u1", "Toronto")
		require.NoError(t, err)
		assert.Nil(t, stored.VerifyToken)
		require.NotNil(t, stored.VerifiedAt)
		assert.True(t, now.Equal(*stored.VerifiedAt))
	})

	t.Run("second redemption fails", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{UserID: "u1", City: "Toronto", Email: "a@example.com", VerifyToken: strPtr("tok")}))

		_, err := store.Redeem(ctx, "tok", time.Now())
		require.NoError(t, err)
		_, err = store.Redeem(ctx, "tok", time.Now())

		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Redeem(ctx, "nope", time.Now())

		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("concurrent redemptions succeed once", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.UpsertVerification(ctx, &models.Subscription{UserID: "u1", City: "Toronto", Email: "a@example.com", VerifyToken: strPtr("tok")}))

		var wg sync.WaitGroup
		var mu sync.Mutex
		successes := 0
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Redeem(ctx, "tok", time.Now()); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
	})
}

func TestStore_Recipients(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	db := store.db

	testutils.CreateSubscription(t, db, "u1", "Toronto", "new@example.com", true, true, false)
	testutils.CreateSubscription(t, db, "u2", "Toronto", "resolved@example.com", true, false, true)
	testutils.CreateSubscription(t, db, "u3", "Toronto", "both@example.com", true, true, true)
	testutils.CreateSubscription(t, db, "u4", "Toronto", "unverified@example.com", false, true, true)
	testutils.CreateSubscription(t, db, "u5", "Ottawa", "elsewhere@example.com", true, true, true)

	emails := func(subs []models.Subscription) []string {
		out := make([]string, 0, len(subs))
		for _, s := range subs {
			out = append(out, s.Email)
		}
		return out
	}

	newSubs, err := store.Recipients(ctx, "Toronto", models.AlertNewIssue)
	require.NoError(t, err)
	assert.Equal(t, []string{"new@example.com", "both@example.com"}, emails(newSubs))

	resolvedSubs, err := store.Recipients(ctx, "Toronto", models.AlertResolved)
	require.NoError(t, err)
	assert.Equal(t, []string{"resolved@example.com", "both@example.com"}, emails(resolvedSubs))

	none, err := store.Recipients(ctx, "Montreal", models.AlertNewIssue)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.Recipients(ctx, "Toronto", models.AlertKind("deleted"))
	assert.Error(t, err)
}

func TestStore_Probe(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Probe(context.Background()))

	testutils.CloseDB(t, store.db)
	assert.Error(t, store.Probe(context.Background()))
}
