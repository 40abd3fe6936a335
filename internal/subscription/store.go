package subscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/duarteocarmo/limpa/internal/config"
)

// ErrNotFound indicates the requested subscription does not exist.
var ErrNotFound = errors.New("subscription not found")

// ErrDuplicateURL indicates the origin URL is already registered.
var ErrDuplicateURL = errors.New("subscription url already registered")

// Store manages subscription persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the subscription database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "limpa.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new subscription in pending state. The URL hash is
// computed here and never changes afterward.
func (s *Store) Create(ctx context.Context, url, title string) (*Subscription, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("subscription url required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO subscriptions (url, url_hash, title, status, processed_episodes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		url, HashURL(url), title, string(StatusPending), "{}", now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one subscription by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanSubscription(row)
}

// GetByURL fetches one subscription by origin URL.
func (s *Store) GetByURL(ctx context.Context, url string) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE url = ?", strings.TrimSpace(url))
	return scanSubscription(row)
}

// GetByURLHash fetches one subscription by its opaque hash identifier.
func (s *Store) GetByURLHash(ctx context.Context, hash string) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE url_hash = ?", strings.TrimSpace(hash))
	return scanSubscription(row)
}

// List returns all subscriptions ordered by creation time descending.
func (s *Store) List(ctx context.Context) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Update persists the mutable fields of a subscription.
func (s *Store) Update(ctx context.Context, sub *Subscription) error {
	if sub == nil {
		return errors.New("nil subscription")
	}
	episodes, err := json.Marshal(sub.ProcessedEpisodes)
	if err != nil {
		return fmt.Errorf("marshal processed episodes: %w", err)
	}
	var lastRefreshed any
	if sub.LastRefreshedAt != nil {
		lastRefreshed = sub.LastRefreshedAt.UTC().Format(time.RFC3339Nano)
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(ctx,
		`UPDATE subscriptions
         SET title = ?, status = ?, processed_episodes = ?, error_message = ?,
             last_refreshed_at = ?, updated_at = ?
         WHERE id = ?`,
		sub.Title, string(sub.Status), string(episodes), sub.ErrorMessage,
		lastRefreshed, now.Format(time.RFC3339Nano), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	sub.UpdatedAt = now
	return nil
}

// Delete removes a subscription.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetStuckProcessing flips subscriptions left in processing (by a crashed
// run) back to failed so the next sweep retries them.
func (s *Store) ResetStuckProcessing(ctx context.Context, reason string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE subscriptions SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		string(StatusFailed), reason, time.Now().UTC().Format(time.RFC3339Nano), string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck subscriptions: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, url, url_hash, title, status, processed_episodes,
    error_message, last_refreshed_at, created_at, updated_at FROM subscriptions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var (
		sub           Subscription
		status        string
		episodes      string
		errorMessage  sql.NullString
		lastRefreshed sql.NullString
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(&sub.ID, &sub.URL, &sub.URLHash, &sub.Title, &status, &episodes,
		&errorMessage, &lastRefreshed, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown subscription status %q", status)
	}
	sub.Status = parsed
	sub.ErrorMessage = errorMessage.String

	sub.ProcessedEpisodes = make(map[string]ProcessedEpisode)
	if episodes != "" {
		if err := json.Unmarshal([]byte(episodes), &sub.ProcessedEpisodes); err != nil {
			return nil, fmt.Errorf("decode processed episodes: %w", err)
		}
	}

	if lastRefreshed.Valid && lastRefreshed.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, lastRefreshed.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_refreshed_at: %w", err)
		}
		sub.LastRefreshedAt = &ts
	}
	if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: subscriptions.url")
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var (
		res     sql.Result
		execErr error
	)
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		if execErr == nil || !isSQLiteBusy(execErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return res, execErr
}
