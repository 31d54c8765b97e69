package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/pkg/database"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL with pgxpool
type PostgresStore struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken through
// the ForUpdate getters serialize concurrent admissions against the same
// event or resource. Nested calls reuse the outer transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn TxFunc) error {
	if s.inTx {
		return fn(ctx, s)
	}

	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.tx")
	defer span.End()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		fail(span, err)
		return domain.NewStorageError("begin tx", err)
	}

	txStore := &PostgresStore{pool: s.pool, q: tx, inTx: true}
	if err := fn(ctx, txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			span.RecordError(rbErr)
		}
		if !domain.IsDomainError(err) {
			fail(span, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		fail(span, err)
		return domain.NewStorageError("commit tx", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// HealthCheck pings the pool
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// storageErr maps unique violations to ErrAlreadyExists and wraps the rest
func storageErr(op string, err error) error {
	if database.ErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	return domain.NewStorageError(op, err)
}

func pgTime(d time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) time.Duration {
	return time.Duration(t.Microseconds) * time.Microsecond
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const eventColumns = `
	id, title, creator_id, venue_id, event_date, start_time, end_time, capacity,
	is_approved, is_recurring, recurrence_type, recurrence_end, created_at, updated_at`

// CreateEvent inserts a new event
func (s *PostgresStore) CreateEvent(ctx context.Context, event *domain.BaseEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	_, err := s.q.Exec(ctx, query,
		event.ID,
		event.Title,
		event.CreatorID,
		event.VenueID,
		domain.DateOf(event.Date),
		pgTime(event.StartTime),
		pgTime(event.EndTime),
		event.Capacity,
		event.IsApproved,
		event.IsRecurring,
		nullString(string(event.RecurrenceType)),
		event.RecurrenceEnd,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		fail(span, err)
		return storageErr("create event", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetEvent retrieves an event by its ID
func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*domain.BaseEvent, error) {
	return s.getEvent(ctx, "repo.postgres.event.get", id, "")
}

// GetEventForUpdate retrieves an event and locks its row
func (s *PostgresStore) GetEventForUpdate(ctx context.Context, id string) (*domain.BaseEvent, error) {
	return s.getEvent(ctx, "repo.postgres.event.get_for_update", id, " FOR UPDATE")
}

func (s *PostgresStore) getEvent(ctx context.Context, spanName, id, suffix string) (*domain.BaseEvent, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1` + suffix

	event, err := scanEvent(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "event not found")
			return nil, domain.ErrEventNotFound
		}
		fail(span, err)
		return nil, domain.NewStorageError("get event", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// SetApproved flips the approval flag
func (s *PostgresStore) SetApproved(ctx context.Context, id string, approved bool) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.set_approved")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id), attribute.Bool("approved", approved))

	query := `UPDATE events SET is_approved = $2, updated_at = now() WHERE id = $1`

	tag, err := s.q.Exec(ctx, query, id, approved)
	if err != nil {
		fail(span, err)
		return domain.NewStorageError("set approved", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "event not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func scanEvent(row pgx.Row) (*domain.BaseEvent, error) {
	var (
		e              domain.BaseEvent
		start, end     pgtype.Time
		recurrenceType *string
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.CreatorID,
		&e.VenueID,
		&e.Date,
		&start,
		&end,
		&e.Capacity,
		&e.IsApproved,
		&e.IsRecurring,
		&recurrenceType,
		&e.RecurrenceEnd,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Date = domain.DateOf(e.Date)
	e.StartTime = fromPgTime(start)
	e.EndTime = fromPgTime(end)
	if recurrenceType != nil {
		e.RecurrenceType = domain.RecurrenceType(*recurrenceType)
	}
	if e.RecurrenceEnd != nil {
		d := domain.DateOf(*e.RecurrenceEnd)
		e.RecurrenceEnd = &d
	}
	return &e, nil
}
