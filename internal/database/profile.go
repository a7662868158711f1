package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dwitter/internal/models"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrAlreadyFollowing    = errors.New("user already follows this user")
	ErrNotFollowing        = errors.New("user does not follow this user yet")
	ErrSelfFollow          = errors.New("user cannot follow themselves")
	ErrFollowWriteFailed   = errors.New("failed to update follow state")
	ErrProfileUpdateFailed = errors.New("failed to update profile")
)

type ProfileService struct {
	db *Database
}

func NewProfileService(db *Database) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile assembles the full ledger for a user: metadata plus the
// follow and engagement id sets.
func (ps *ProfileService) GetProfile(userID string) (*models.Profile, error) {
	var profile models.Profile

	query := `SELECT user_id, bio, location, website, background_image, created, updated
		  FROM profiles WHERE user_id = ?`
	err := ps.db.DBConn.QueryRow(query, userID).Scan(&profile.UserID, &profile.Bio,
		&profile.Location, &profile.Website, &profile.BackgroundImage,
		&profile.Created, &profile.Updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	sets := []struct {
		dst   *[]string
		query string
	}{
		{&profile.Following, `SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created`},
		{&profile.Followers, `SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created`},
		{&profile.Likes, `SELECT dweet_id FROM profile_likes WHERE user_id = ? ORDER BY created`},
		{&profile.Redweets, `SELECT dweet_id FROM profile_redweets WHERE user_id = ? ORDER BY created`},
	}
	for _, set := range sets {
		ids, err := ps.collectIDs(set.query, userID)
		if err != nil {
			return nil, err
		}
		*set.dst = ids
	}

	return &profile, nil
}

// UpdateProfile sets the presentation metadata of a profile.
func (ps *ProfileService) UpdateProfile(userID, bio, location, website, backgroundImage string) error {
	query := `UPDATE profiles SET bio = ?, location = ?, website = ?, background_image = ?, updated = ?
		  WHERE user_id = ?`
	result, err := ps.db.DBConn.Exec(query, bio, location, website, backgroundImage, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Follow adds followeeID to the follower's following set.
func (ps *ProfileService) Follow(followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	following, err := ps.IsFollowing(followerID, followeeID)
	if err != nil {
		return err
	}
	if following {
		return ErrAlreadyFollowing
	}

	query := `INSERT INTO follows (follower_id, followee_id, created) VALUES (?, ?, ?)`
	if _, err := ps.db.DBConn.Exec(query, followerID, followeeID, time.Now()); err != nil {
		return fmt.Errorf("%w: %v", ErrFollowWriteFailed, err)
	}

	return nil
}

// Unfollow removes followeeID from the follower's following set.
func (ps *ProfileService) Unfollow(followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`
	result, err := ps.db.DBConn.Exec(query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFollowWriteFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFollowing
	}

	return nil
}

// IsFollowing reports whether follower follows followee.
func (ps *ProfileService) IsFollowing(followerID, followeeID string) (bool, error) {
	var one int
	err := ps.db.DBConn.QueryRow(
		`SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FollowingIDs returns the ids of users the given user follows.
func (ps *ProfileService) FollowingIDs(userID string) ([]string, error) {
	return ps.collectIDs(`SELECT followee_id FROM follows WHERE follower_id = ?`, userID)
}

func (ps *ProfileService) collectIDs(query string, arg string) ([]string, error) {
	rows, err := ps.db.DBConn.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
