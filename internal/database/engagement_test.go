package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeUnlikeKeepsBothSidesConsistent(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)
	profiles := NewProfileService(db)
	feed := NewFeedService(db)

	require.NoError(t, engagements.Like(actor.ID, dweet.ID))
	requireEngagementConsistent(t, db)

	view, err := feed.GetDweetView(dweet.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{actor.ID}, view.Likes)

	profile, err := profiles.GetProfile(actor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{dweet.ID}, profile.Likes)

	require.NoError(t, engagements.Unlike(actor.ID, dweet.ID))
	requireEngagementConsistent(t, db)

	view, err = feed.GetDweetView(dweet.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Likes)

	profile, err = profiles.GetProfile(actor.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Likes)
}

func TestToggleOperationsAreNotIdempotent(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)

	tests := []struct {
		name    string
		toggle  func(actorID, dweetID string) error
		wantErr error
	}{
		{"second like", engagements.Like, ErrAlreadyLiked},
		{"unlike after unlike", engagements.Unlike, ErrNotLiked},
		{"second redweet", engagements.Redweet, ErrAlreadyRedweeted},
		{"unredweet after unredweet", engagements.UnRedweet, ErrNotRedweeted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.toggle(actor.ID, dweet.ID))
			err := tt.toggle(actor.ID, dweet.ID)
			assert.ErrorIs(t, err, tt.wantErr)
			requireEngagementConsistent(t, db)
		})
	}
}

func TestUnlikeWithoutLikeIsConflict(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)

	assert.ErrorIs(t, engagements.Unlike(actor.ID, dweet.ID), ErrNotLiked)
	assert.ErrorIs(t, engagements.UnRedweet(actor.ID, dweet.ID), ErrNotRedweeted)
}

func TestEngagementOnMissingDweet(t *testing.T) {
	db := newTestDB(t)
	actor := createTestUser(t, db, "actor")

	engagements := NewEngagementService(db)

	assert.ErrorIs(t, engagements.Like(actor.ID, "no-such-dweet"), ErrDweetNotFound)
	assert.ErrorIs(t, engagements.Unlike(actor.ID, "no-such-dweet"), ErrDweetNotFound)
	assert.ErrorIs(t, engagements.Redweet(actor.ID, "no-such-dweet"), ErrDweetNotFound)
}

func TestRedweetTracksBothSides(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)
	require.NoError(t, engagements.Redweet(actor.ID, dweet.ID))
	requireEngagementConsistent(t, db)

	redweeted, err := engagements.Redweeted(actor.ID, dweet.ID)
	require.NoError(t, err)
	assert.True(t, redweeted)

	profile, err := NewProfileService(db).GetProfile(actor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{dweet.ID}, profile.Redweets)
}

func TestReconcileRepairsTornWrites(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	other := createTestUser(t, db, "other")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)
	require.NoError(t, engagements.Like(actor.ID, dweet.ID))

	// Simulate two torn dual-writes: a dweet-side row whose ledger twin
	// never landed, and a ledger row whose dweet-side row is gone.
	_, err := db.DBConn.Exec(
		`INSERT INTO dweet_likes (dweet_id, user_id, created) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		dweet.ID, other.ID)
	require.NoError(t, err)
	_, err = db.DBConn.Exec(
		`INSERT INTO profile_redweets (user_id, dweet_id, created) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		actor.ID, dweet.ID)
	require.NoError(t, err)

	repaired, err := engagements.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)
	requireEngagementConsistent(t, db)

	// The dweet side won: the missing ledger like exists now, the
	// orphaned ledger redweet is gone.
	profile, err := NewProfileService(db).GetProfile(other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{dweet.ID}, profile.Likes)

	profile, err = NewProfileService(db).GetProfile(actor.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Redweets)
}

func TestReconcileOnConsistentStateIsNoop(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author")
	actor := createTestUser(t, db, "actor")
	dweet := createTestDweet(t, db, author.ID, "hello", nil)

	engagements := NewEngagementService(db)
	require.NoError(t, engagements.Like(actor.ID, dweet.ID))
	require.NoError(t, engagements.Redweet(actor.ID, dweet.ID))

	repaired, err := engagements.Reconcile()
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
