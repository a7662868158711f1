package database

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dwitter/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrEmptyEmail         = errors.New("email must not be empty")
	ErrLongEmail          = errors.New("email must not exceed 255 characters")
	ErrInvalidUsername    = errors.New("username may contain only letters, digits, underscore and dash")
	ErrShortUsername      = errors.New("username must contain at least 3 characters")
	ErrLongUsername       = errors.New("username must not exceed 50 characters")
	ErrShortPassword      = errors.New("password must contain at least 6 characters")
	ErrLongPassword       = errors.New("password must not exceed 128 characters")
	ErrPasswordHashFailed = errors.New("failed to hash password")
	ErrUserCreateFailed   = errors.New("failed to create user")
	ErrEmailNotFound      = errors.New("no user with this email")
	ErrIncorrectPassword  = errors.New("incorrect password")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type UserService struct {
	db *Database
}

func NewUserService(db *Database) *UserService {
	return &UserService{db: db}
}

// CreateUser registers a new user and its empty profile (ledger).
func (us *UserService) CreateUser(name, username, email, password string) (*models.User, error) {
	if err := us.validateUserData(name, username, email, password); err != nil {
		return nil, err
	}

	if err := us.checkUserUniqueness(username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordHashFailed, err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		Created:  time.Now(),
	}

	query := `INSERT INTO users (id, name, username, email, password, role, created, updated)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = us.db.DBConn.Exec(query, user.ID, user.Name, user.Username, user.Email,
		user.Password, user.Role, user.Created, user.Created)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserCreateFailed, err)
	}

	// Profile row is created together with the account
	profileQuery := `INSERT INTO profiles (user_id, created, updated) VALUES (?, ?, ?)`
	if _, err := us.db.DBConn.Exec(profileQuery, user.ID, user.Created, user.Created); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserCreateFailed, err)
	}

	return &user, nil
}

// VerifyUser checks email/password credentials and returns the user.
func (us *UserService) VerifyUser(email, password string) (*models.User, error) {
	var user models.User

	query := `SELECT id, name, username, email, password, avatar, role, created
		  FROM users WHERE email = ?`
	err := us.db.DBConn.QueryRow(query, email).Scan(&user.ID, &user.Name, &user.Username,
		&user.Email, &user.Password, &user.Avatar, &user.Role, &user.Created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmailNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	return &user, nil
}

// GetUser fetches a user by id.
func (us *UserService) GetUser(id string) (*models.User, error) {
	var user models.User

	query := `SELECT id, name, username, email, password, avatar, role, created
		  FROM users WHERE id = ?`
	err := us.db.DBConn.QueryRow(query, id).Scan(&user.ID, &user.Name, &user.Username,
		&user.Email, &user.Password, &user.Avatar, &user.Role, &user.Created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// UserExists reports whether a user with the given id exists.
func (us *UserService) UserExists(id string) (bool, error) {
	var one int
	err := us.db.DBConn.QueryRow(`SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// checkUserUniqueness verifies username and email are not taken yet.
func (us *UserService) checkUserUniqueness(username, email string) error {
	var one int

	err := us.db.DBConn.QueryRow(`SELECT 1 FROM users WHERE username = ?`, username).Scan(&one)
	if err == nil {
		return ErrUsernameExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	err = us.db.DBConn.QueryRow(`SELECT 1 FROM users WHERE email = ?`, email).Scan(&one)
	if err == nil {
		return ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	return nil
}

// validateUserData validates registration input.
func (us *UserService) validateUserData(name, username, email, password string) error {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(name) == 0 {
		return ErrEmptyName
	}
	if len(username) < 3 {
		return ErrShortUsername
	}
	if len(username) > 50 {
		return ErrLongUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(email) == 0 {
		return ErrEmptyEmail
	}
	if len(email) > 255 {
		return ErrLongEmail
	}
	if len(password) < 6 {
		return ErrShortPassword
	}
	if len(password) > 128 {
		return ErrLongPassword
	}

	return nil
}
