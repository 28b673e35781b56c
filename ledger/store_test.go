package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestOpenFamilyCreatesLiveSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	secret, sess, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{IP: "203.0.113.7", UserAgent: "cli", MFAVerified: true})
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	assert.Equal(t, "acct-1", sess.AccountID)
	assert.NotEmpty(t, sess.FamilyID)
	assert.True(t, sess.MFAVerified)
	assert.True(t, sess.Live(time.Now()))

	found, err := store.FindBySecret(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestRotateRetiresPredecessor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	secret, first, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{MFAVerified: true})
	require.NoError(t, err)

	nextSecret, next, err := store.Rotate(ctx, secret, time.Hour, Metadata{IP: "198.51.100.4"})
	require.NoError(t, err)
	assert.NotEqual(t, secret, nextSecret)
	assert.Equal(t, first.FamilyID, next.FamilyID)
	assert.Equal(t, first.AccountID, next.AccountID)
	assert.True(t, next.MFAVerified, "MFA state carries across rotation")

	// the presented session is now retired and points at its successor
	retired, err := store.FindBySecret(ctx, secret)
	require.NoError(t, err)
	require.NotNil(t, retired.SuccessorID)
	assert.Equal(t, next.ID, *retired.SuccessorID)
	assert.NotNil(t, retired.RevokedAt)
	assert.False(t, retired.Live(time.Now()))
}

func TestRotateUnknownSecret(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Rotate(context.Background(), "never-issued", time.Hour, Metadata{})
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRotateReplayRevokesWholeFamily(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	secret, first, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{})
	require.NoError(t, err)

	nextSecret, _, err := store.Rotate(ctx, secret, time.Hour, Metadata{})
	require.NoError(t, err)

	// replaying the retired secret is reuse
	_, _, err = store.Rotate(ctx, secret, time.Hour, Metadata{})
	assert.ErrorIs(t, err, ErrReuseDetected)

	// the entire family is dead, including the freshly minted successor
	successor, err := store.FindBySecret(ctx, nextSecret)
	require.NoError(t, err)
	assert.NotNil(t, successor.RevokedAt)
	assert.False(t, successor.Live(time.Now()))

	_, _, err = store.Rotate(ctx, nextSecret, time.Hour, Metadata{})
	assert.ErrorIs(t, err, ErrReuseDetected)

	head, err := store.FindBySecret(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, first.FamilyID, head.FamilyID)
	assert.NotNil(t, head.RevokedAt)
}

func TestRotateExpiredSessionDoesNotRevokeFamily(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	secret, sess, err := store.OpenFamily(ctx, "acct-1", -time.Minute, Metadata{})
	require.NoError(t, err)

	_, _, err = store.Rotate(ctx, secret, time.Hour, Metadata{})
	assert.ErrorIs(t, err, ErrExpiredSession)

	// expiry is not reuse: the row stays unrevoked
	found, err := store.FindBySecret(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
	assert.Nil(t, found.RevokedAt)
	assert.Nil(t, found.SuccessorID)
}

func TestRotateConcurrentPresentersSingleWinner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	secret, _, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{})
	require.NoError(t, err)

	const presenters = 8
	var wg sync.WaitGroup
	errs := make([]error, presenters)

	for i := 0; i < presenters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, _, errs[idx] = store.Rotate(ctx, secret, time.Hour, Metadata{})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrReuseDetected)
	}
	assert.LessOrEqual(t, winners, 1, "at most one rotation may succeed")
}

func TestRevokeAllForAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s1, _, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{})
	require.NoError(t, err)
	s2, _, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{})
	require.NoError(t, err)
	other, _, err := store.OpenFamily(ctx, "acct-2", time.Hour, Metadata{})
	require.NoError(t, err)

	require.NoError(t, store.RevokeAllForAccount(ctx, "acct-1"))

	for _, secret := range []string{s1, s2} {
		_, _, err := store.Rotate(ctx, secret, time.Hour, Metadata{})
		assert.ErrorIs(t, err, ErrReuseDetected)
	}

	// unrelated accounts keep rotating
	_, _, err = store.Rotate(ctx, other, time.Hour, Metadata{})
	assert.NoError(t, err)
}

func TestDeleteExpiredSweepsOldRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expired, _, err := store.OpenFamily(ctx, "acct-1", -2*time.Hour, Metadata{})
	require.NoError(t, err)
	live, _, err := store.OpenFamily(ctx, "acct-1", time.Hour, Metadata{})
	require.NoError(t, err)

	removed, err := store.DeleteExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.FindBySecret(ctx, expired)
	assert.ErrorIs(t, err, ErrUnknownSession)

	_, err = store.FindBySecret(ctx, live)
	assert.NoError(t, err)
}
