// Package journal persists a durable record of every checkout attempt the
// gateway drives: which session, which cart content (by idempotency key),
// which order, and how far the payment got. It is the audit trail consulted
// to spot duplicate submissions across gateway restarts.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var ErrAttemptNotFound = errors.New("checkout attempt not found")

type Attempt struct {
	ID             string
	SID            string
	OrderID        int64
	IdempotencyKey string
	State          domain.CheckoutState
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Journal interface {
	Record(ctx context.Context, a *Attempt) error
	UpdateState(ctx context.Context, id string, state domain.CheckoutState, failureReason string) error
	AttachOrder(ctx context.Context, id string, orderID int64) error
	// ActiveByKey returns the most recent non-terminal attempt for the
	// session and idempotency key, or ErrAttemptNotFound.
	ActiveByKey(ctx context.Context, sid, key string) (*Attempt, error)
	BySession(ctx context.Context, sid string) ([]Attempt, error)
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	// busy_timeout waits for locks instead of failing; WAL lets the status
	// endpoint read while a checkout writes.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Record(ctx context.Context, a *Attempt) error {
	const q = `
		INSERT INTO checkout_attempts
			(id, sid, order_id, idempotency_key, state, failure_reason, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.SID,
		a.OrderID,
		a.IdempotencyKey,
		string(a.State),
		a.FailureReason,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to record checkout attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *Repository) UpdateState(ctx context.Context, id string, state domain.CheckoutState, failureReason string) error {
	const q = `
		UPDATE checkout_attempts
		SET state = ?, failure_reason = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, string(state), failureReason, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *Repository) AttachOrder(ctx context.Context, id string, orderID int64) error {
	const q = `
		UPDATE checkout_attempts
		SET order_id = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, orderID, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to attach order to checkout attempt %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *Repository) ActiveByKey(ctx context.Context, sid, key string) (*Attempt, error) {
	const q = `
		SELECT id, sid, order_id, idempotency_key, state, failure_reason, created_at, updated_at
		FROM checkout_attempts
		WHERE sid = ? AND idempotency_key = ? AND state NOT IN (?, ?)
		ORDER BY created_at DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, q, sid, key,
		string(domain.CheckoutStateSucceeded), string(domain.CheckoutStateIdle))

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkout attempt: %w", err)
	}
	return a, nil
}

func (r *Repository) BySession(ctx context.Context, sid string) ([]Attempt, error) {
	const q = `
		SELECT id, sid, order_id, idempotency_key, state, failure_reason, created_at, updated_at
		FROM checkout_attempts
		WHERE sid = ?
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkout attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (*Attempt, error) {
	var a Attempt
	var state, createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.SID, &a.OrderID, &a.IdempotencyKey, &state, &a.FailureReason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.State = domain.CheckoutState(state)
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// RFC3339 stored as TEXT, the SQLite idiom. Fixed-width nanoseconds so the
// textual ordering matches the chronological one.
func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000000Z07:00")
}
