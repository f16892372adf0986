package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dupescan/internal/logging"
)

// User is the single dashboard account.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is an authenticated dashboard session. Token holds the
// client-side value; only its SHA-256 is stored.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionDuration is how long a session remains valid.
const SessionDuration = 7 * 24 * time.Hour

// hashToken derives the stored form of a session token. The database
// only ever sees the SHA-256, so a leaked database cannot be replayed
// against the server.
func hashToken(tokenBytes []byte) string {
	sum := sha256.Sum256(tokenBytes)
	return hex.EncodeToString(sum[:])
}

// HasUsers reports whether the dashboard account exists yet.
func (d *Database) HasUsers(ctx context.Context) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// CreateUser creates the single dashboard account.
func (d *Database) CreateUser(ctx context.Context, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	if password == "" {
		err = fmt.Errorf("password must not be empty")
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var count int
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return storeErr("create_user", err)
	}
	if count > 0 {
		err = fmt.Errorf("user already exists")
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err = d.db.ExecContext(ctx,
		"INSERT INTO users (password_hash) VALUES (?)", string(hash)); err != nil {
		return storeErr("create_user", err)
	}
	return nil
}

// ValidatePassword checks the password against the stored hash and
// returns the user when valid.
func (d *Database) ValidatePassword(ctx context.Context, password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_password", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var user User
	var createdAt, updatedAt int64

	err = d.db.QueryRowContext(ctx,
		"SELECT id, password_hash, created_at, updated_at FROM users LIMIT 1",
	).Scan(&user.ID, &user.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		err = fmt.Errorf("invalid password")
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		err = fmt.Errorf("invalid password")
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// CreateSession creates a session for a user and returns the client
// token.
func (d *Database) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tokenBytes := make([]byte, 32)
	if _, err = rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	tokenHash := hashToken(tokenBytes)
	token := hex.EncodeToString(tokenBytes)

	expiresAt := time.Now().Add(SessionDuration)

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, tokenHash, expiresAt.Unix(),
	)
	if err != nil {
		return nil, storeErr("create_session", err)
	}

	id, _ := result.LastInsertId()
	return &Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateSession resolves a session token to its user, rejecting
// unknown and expired tokens.
func (d *Database) ValidateSession(ctx context.Context, token string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_session", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	tokenBytes, err := hex.DecodeString(token)
	if err != nil {
		err = fmt.Errorf("invalid token format")
		return nil, err
	}
	tokenHash := hashToken(tokenBytes)

	var userID, expiresAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = ?", tokenHash,
	).Scan(&userID, &expiresAt)
	if err != nil {
		err = fmt.Errorf("invalid session")
		return nil, err
	}

	if time.Now().Unix() > expiresAt {
		go func() {
			if delErr := d.deleteSessionByHash(tokenHash); delErr != nil {
				logging.Error("failed to delete expired session: %v", delErr)
			}
		}()
		err = fmt.Errorf("session expired")
		return nil, err
	}

	var user User
	var createdAt, updatedAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id, created_at, updated_at FROM users WHERE id = ?", userID,
	).Scan(&user.ID, &createdAt, &updatedAt)
	if err != nil {
		err = fmt.Errorf("user not found")
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

func (d *Database) deleteSessionByHash(tokenHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", tokenHash)
	return storeErr("delete_session", err)
}

// DeleteSession removes a session by its client token.
func (d *Database) DeleteSession(token string) error {
	tokenBytes, err := hex.DecodeString(token)
	if err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	return d.deleteSessionByHash(hashToken(tokenBytes))
}

// DeleteAllSessions removes every session (used on password change).
func (d *Database) DeleteAllSessions(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions")
	return storeErr("delete_sessions", err)
}

// CleanExpiredSessions removes expired sessions.
func (d *Database) CleanExpiredSessions(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("clean_expired_sessions", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().Unix())
	return storeErr("clean_expired_sessions", err)
}

// UpdatePassword changes the account password and invalidates every
// session.
func (d *Database) UpdatePassword(ctx context.Context, newPassword string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_password", start, err) }()

	if newPassword == "" {
		err = fmt.Errorf("password must not be empty")
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = strftime('%s', 'now')", string(hash))
	if err != nil {
		return storeErr("update_password", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = fmt.Errorf("no user found")
		return err
	}

	if _, delErr := d.db.ExecContext(ctx, "DELETE FROM sessions"); delErr != nil {
		logging.Warn("failed to invalidate sessions: %v", delErr)
	}
	return nil
}
