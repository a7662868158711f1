package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCreatedWithUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone")

	profile, err := NewProfileService(db).GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Empty(t, profile.Following)
	assert.Empty(t, profile.Likes)
}

func TestFollowUnfollow(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	profiles := NewProfileService(db)

	require.NoError(t, profiles.Follow(alice.ID, bob.ID))
	assert.ErrorIs(t, profiles.Follow(alice.ID, bob.ID), ErrAlreadyFollowing)
	assert.ErrorIs(t, profiles.Follow(alice.ID, alice.ID), ErrSelfFollow)

	profile, err := profiles.GetProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, profile.Following)

	// The edge shows up on bob's side as a follower
	profile, err = profiles.GetProfile(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, profile.Followers)

	require.NoError(t, profiles.Unfollow(alice.ID, bob.ID))
	assert.ErrorIs(t, profiles.Unfollow(alice.ID, bob.ID), ErrNotFollowing)
}

func TestUpdateProfileMetadata(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone")
	profiles := NewProfileService(db)

	err := profiles.UpdateProfile(user.ID, "a bio", "a place", "https://example.com", "")
	require.NoError(t, err)

	profile, err := profiles.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a bio", profile.Bio)
	assert.Equal(t, "a place", profile.Location)

	assert.ErrorIs(t, profiles.UpdateProfile("nobody", "", "", "", ""), ErrProfileNotFound)
}
