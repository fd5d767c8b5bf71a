package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrPolicyNotFound = errors.New("upload policy not found")
	ErrPolicyExpired  = errors.New("upload policy expired")
	ErrPolicyUsed     = errors.New("upload policy already used")
)

// UploadPolicy authorizes one upload of one object with a fixed size and
// digest.
type UploadPolicy struct {
	Token         string
	ObjectKey     string
	ContentType   string
	ContentLength int64
	ContentMD5    string
	ExpiresAt     time.Time
}

// InsertPolicy stores an unused policy.
func InsertPolicy(db *sql.DB, p UploadPolicy) error {
	query := `
		INSERT INTO upload_policies (token, object_key, content_type, content_length, content_md5, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, p.Token, p.ObjectKey, p.ContentType, p.ContentLength, p.ContentMD5, p.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert upload policy: %w", err)
	}
	return nil
}

// ConsumePolicy marks the policy used and returns it. A policy can be
// consumed once, before its expiry.
func ConsumePolicy(db *sql.DB, token string, now time.Time) (UploadPolicy, error) {
	tx, err := db.Begin()
	if err != nil {
		return UploadPolicy{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var p UploadPolicy
	var expiresAt int64
	var used int
	err = tx.QueryRow(`
		SELECT token, object_key, content_type, content_length, content_md5, expires_at, used
		FROM upload_policies
		WHERE token = ?
	`, token).Scan(&p.Token, &p.ObjectKey, &p.ContentType, &p.ContentLength, &p.ContentMD5, &expiresAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return UploadPolicy{}, ErrPolicyNotFound
	}
	if err != nil {
		return UploadPolicy{}, fmt.Errorf("failed to get upload policy: %w", err)
	}
	p.ExpiresAt = time.Unix(expiresAt, 0)

	if used != 0 {
		return UploadPolicy{}, ErrPolicyUsed
	}
	if !now.Before(p.ExpiresAt) {
		return UploadPolicy{}, ErrPolicyExpired
	}

	if _, err := tx.Exec(`UPDATE upload_policies SET used = 1 WHERE token = ?`, token); err != nil {
		return UploadPolicy{}, fmt.Errorf("failed to mark upload policy used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return UploadPolicy{}, fmt.Errorf("failed to commit upload policy: %w", err)
	}
	return p, nil
}

// PurgePolicies deletes used and expired policies.
func PurgePolicies(db *sql.DB, now time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM upload_policies WHERE used = 1 OR expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge upload policies: %w", err)
	}
	return result.RowsAffected()
}
