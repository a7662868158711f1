package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"dwitter/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrTokenGeneration = errors.New("failed to generate token")
	ErrSessionCreation = errors.New("failed to create session")
	ErrSessionDeletion = errors.New("failed to delete session")
)

const (
	SessionDuration = 24 * time.Hour
	// 32 random bytes, 64 hex characters on the wire
	TokenLength = 32
)

type SessionService struct {
	db *Database
}

func NewSessionService(db *Database) *SessionService {
	return &SessionService{db: db}
}

func (ss *SessionService) CreateSession(userID string) (*models.Session, error) {
	token, err := ss.generateToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	now := time.Now()
	expires := now.Add(SessionDuration)

	query := `INSERT INTO sessions (token, user_id, expires, created) VALUES (?, ?, ?, ?)`
	_, err = ss.db.DBConn.Exec(query, token, userID, expires, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	return &models.Session{
		Token:   token,
		UserID:  userID,
		Expires: expires,
		Created: now,
	}, nil
}

// GetSession fetches a session by token and checks expiry.
func (ss *SessionService) GetSession(token string) (*models.Session, error) {
	var session models.Session

	query := `SELECT token, user_id, expires, created FROM sessions WHERE token = ?`
	err := ss.db.DBConn.QueryRow(query, token).Scan(
		&session.Token,
		&session.UserID,
		&session.Expires,
		&session.Created,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if time.Now().After(session.Expires) {
		ss.DeleteSession(token)
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// GetUserBySession resolves the session token to its user.
func (ss *SessionService) GetUserBySession(token string) (*models.User, error) {
	session, err := ss.GetSession(token)
	if err != nil {
		return nil, err
	}

	var user models.User
	query := `SELECT id, name, username, email, password, avatar, role, created
		  FROM users WHERE id = ?`
	err = ss.db.DBConn.QueryRow(query, session.UserID).Scan(&user.ID, &user.Name,
		&user.Username, &user.Email, &user.Password, &user.Avatar, &user.Role, &user.Created)

	if err != nil {
		if err == sql.ErrNoRows {
			// Drop the session if its user is gone
			ss.DeleteSession(token)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// DeleteSession removes a session by token.
func (ss *SessionService) DeleteSession(token string) error {
	query := `DELETE FROM sessions WHERE token = ?`
	result, err := ss.db.DBConn.Exec(query, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionDeletion, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// CleanupExpiredSessions removes sessions past their expiry.
func (ss *SessionService) CleanupExpiredSessions() error {
	query := `DELETE FROM sessions WHERE expires < ?`
	_, err := ss.db.DBConn.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %v", err)
	}
	return nil
}

// generateToken generates a cryptographically strong random token.
func (ss *SessionService) generateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
