package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CountAccepted counts ACCEPTED RSVPs of an event
func (s *PostgresStore) CountAccepted(ctx context.Context, eventID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rsvp.count_accepted")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT COUNT(*) FROM event_rsvps WHERE event_id = $1 AND status = 'ACCEPTED'`

	var count int
	if err := s.q.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		fail(span, err)
		return 0, domain.NewStorageError("count accepted", err)
	}

	span.SetAttributes(attribute.Int("accepted", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}

// GetRSVP retrieves the RSVP of userID for eventID
func (s *PostgresStore) GetRSVP(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rsvp.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("user_id", userID))

	query := `SELECT event_id, user_id, status, responded_at FROM event_rsvps
		WHERE event_id = $1 AND user_id = $2`

	rsvp, err := scanRSVP(s.q.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "rsvp not found")
			return nil, domain.ErrRSVPNotFound
		}
		fail(span, err)
		return nil, domain.NewStorageError("get rsvp", err)
	}

	span.SetStatus(codes.Ok, "")
	return rsvp, nil
}

// InsertRSVP inserts a new RSVP
func (s *PostgresStore) InsertRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rsvp.insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", rsvp.EventID),
		attribute.String("user_id", rsvp.UserID),
		attribute.String("status", string(rsvp.Status)),
	)

	if rsvp.RespondedAt.IsZero() {
		rsvp.RespondedAt = time.Now().UTC()
	}

	query := `INSERT INTO event_rsvps (event_id, user_id, status, responded_at) VALUES ($1, $2, $3, $4)`

	if _, err := s.q.Exec(ctx, query, rsvp.EventID, rsvp.UserID, string(rsvp.Status), rsvp.RespondedAt); err != nil {
		fail(span, err)
		return storageErr("insert rsvp", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateRSVP overwrites the status of an existing RSVP
func (s *PostgresStore) UpdateRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rsvp.update")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", rsvp.EventID),
		attribute.String("user_id", rsvp.UserID),
		attribute.String("status", string(rsvp.Status)),
	)

	if rsvp.RespondedAt.IsZero() {
		rsvp.RespondedAt = time.Now().UTC()
	}

	query := `UPDATE event_rsvps SET status = $3, responded_at = $4 WHERE event_id = $1 AND user_id = $2`

	tag, err := s.q.Exec(ctx, query, rsvp.EventID, rsvp.UserID, string(rsvp.Status), rsvp.RespondedAt)
	if err != nil {
		fail(span, err)
		return domain.NewStorageError("update rsvp", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "rsvp not found")
		return domain.ErrRSVPNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListRSVPs lists every RSVP of an event ordered by response time
func (s *PostgresStore) ListRSVPs(ctx context.Context, eventID string) ([]*domain.EventRSVP, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rsvp.list")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT event_id, user_id, status, responded_at FROM event_rsvps
		WHERE event_id = $1 ORDER BY responded_at, user_id`

	rows, err := s.q.Query(ctx, query, eventID)
	if err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list rsvps", err)
	}
	defer rows.Close()

	rsvps := make([]*domain.EventRSVP, 0)
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			fail(span, err)
			return nil, domain.NewStorageError("scan rsvp", err)
		}
		rsvps = append(rsvps, rsvp)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list rsvps", err)
	}

	span.SetAttributes(attribute.Int("count", len(rsvps)))
	span.SetStatus(codes.Ok, "")
	return rsvps, nil
}

func scanRSVP(row pgx.Row) (*domain.EventRSVP, error) {
	var (
		r      domain.EventRSVP
		status string
	)
	if err := row.Scan(&r.EventID, &r.UserID, &status, &r.RespondedAt); err != nil {
		return nil, err
	}
	r.Status = domain.RSVPStatus(status)
	return &r, nil
}
