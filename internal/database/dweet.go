package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dwitter/internal/models"

	"github.com/google/uuid"
)

var (
	ErrDweetNotFound     = errors.New("dweet not found")
	ErrEmptyText         = errors.New("dweet text must not be empty")
	ErrLongText          = errors.New("dweet text must not exceed 280 characters")
	ErrDweetCreateFailed = errors.New("failed to create dweet")
	ErrDweetUpdateFailed = errors.New("failed to update dweet")
	ErrDweetDeleteFailed = errors.New("failed to delete dweet")
	ErrNotDweetAuthor    = errors.New("only the author may change a dweet")
)

const MaxDweetLength = 280

type DweetService struct {
	db *Database
}

func NewDweetService(db *Database) *DweetService {
	return &DweetService{db: db}
}

// CreateDweet creates a dweet, optionally as a reply. After a reply is
// stored the parent's replies_count is recomputed by exact recount.
func (ds *DweetService) CreateDweet(authorID, text string, replyTo *string) (*models.Dweet, error) {
	if err := ds.validateDweetText(text); err != nil {
		return nil, err
	}

	if replyTo != nil {
		exists, err := ds.DweetExists(*replyTo)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrDweetNotFound
		}
	}

	dweet := models.Dweet{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Text:     text,
		ReplyTo:  replyTo,
		Created:  time.Now(),
	}
	dweet.Updated = dweet.Created

	query := `INSERT INTO dweets (id, author_id, text, reply_to, created, updated)
		  VALUES (?, ?, ?, ?, ?, ?)`
	_, err := ds.db.DBConn.Exec(query, dweet.ID, dweet.AuthorID, dweet.Text, dweet.ReplyTo,
		dweet.Created, dweet.Updated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDweetCreateFailed, err)
	}

	if replyTo != nil {
		if err := ds.RecountReplies(*replyTo); err != nil {
			return nil, err
		}
	}

	return &dweet, nil
}

// GetDweet fetches a dweet by id.
func (ds *DweetService) GetDweet(id string) (*models.Dweet, error) {
	query := `SELECT id, author_id, text, reply_to, replies_count, edited, created, updated
		  FROM dweets WHERE id = ?`

	var dweet models.Dweet
	err := ds.db.DBConn.QueryRow(query, id).Scan(&dweet.ID, &dweet.AuthorID, &dweet.Text,
		&dweet.ReplyTo, &dweet.RepliesCount, &dweet.Edited, &dweet.Created, &dweet.Updated)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDweetNotFound
		}
		return nil, err
	}

	return &dweet, nil
}

// EditDweet replaces the text of a dweet and marks it edited. Engagement
// sets and counters are left untouched.
func (ds *DweetService) EditDweet(actor *models.User, id, text string) (*models.Dweet, error) {
	if err := ds.validateDweetText(text); err != nil {
		return nil, err
	}

	dweet, err := ds.GetDweet(id)
	if err != nil {
		return nil, err
	}

	if dweet.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotDweetAuthor
	}

	now := time.Now()
	query := `UPDATE dweets SET text = ?, edited = 1, updated = ? WHERE id = ?`
	if _, err := ds.db.DBConn.Exec(query, text, now, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDweetUpdateFailed, err)
	}

	dweet.Text = text
	dweet.Edited = true
	dweet.Updated = now

	return dweet, nil
}

// RemoveDweet deletes a dweet together with its engagement rows on both
// sides. If the dweet was a reply, the parent's counter is recomputed.
func (ds *DweetService) RemoveDweet(actor *models.User, id string) (*models.Dweet, error) {
	dweet, err := ds.GetDweet(id)
	if err != nil {
		return nil, err
	}

	if dweet.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotDweetAuthor
	}

	result, err := ds.db.DBConn.Exec(`DELETE FROM dweets WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDweetDeleteFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrDweetNotFound
	}

	// Engagement rows referencing the dweet are dead on both sides
	cleanup := []string{
		`DELETE FROM dweet_likes WHERE dweet_id = ?`,
		`DELETE FROM dweet_redweets WHERE dweet_id = ?`,
		`DELETE FROM profile_likes WHERE dweet_id = ?`,
		`DELETE FROM profile_redweets WHERE dweet_id = ?`,
	}
	for _, query := range cleanup {
		if _, err := ds.db.DBConn.Exec(query, id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDweetDeleteFailed, err)
		}
	}

	if dweet.ReplyTo != nil {
		if err := ds.RecountReplies(*dweet.ReplyTo); err != nil {
			return nil, err
		}
	}

	return dweet, nil
}

// RecountReplies re-derives replies_count from the live child set. Always a
// full recount, never an increment, so concurrent creates and removes
// cannot make the counter drift.
func (ds *DweetService) RecountReplies(id string) error {
	query := `UPDATE dweets
		  SET replies_count = (SELECT COUNT(*) FROM dweets c WHERE c.reply_to = dweets.id)
		  WHERE id = ?`
	if _, err := ds.db.DBConn.Exec(query, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDweetUpdateFailed, err)
	}
	return nil
}

// DweetExists reports whether a dweet with the given id exists.
func (ds *DweetService) DweetExists(id string) (bool, error) {
	var one int
	err := ds.db.DBConn.QueryRow(`SELECT 1 FROM dweets WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// validateDweetText validates the dweet body: 1-280 code points.
func (ds *DweetService) validateDweetText(text string) error {
	text = strings.TrimSpace(text)

	if len(text) == 0 {
		return ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxDweetLength {
		return ErrLongText
	}

	return nil
}
