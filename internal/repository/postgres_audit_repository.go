package repository

import (
	"context"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FindOvercommittedEvents lists events holding more ACCEPTED RSVPs than seats
func (s *PostgresStore) FindOvercommittedEvents(ctx context.Context) ([]EventOvercommit, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.audit.overcommitted_events")
	defer span.End()

	query := `
		SELECT e.id, e.capacity, COUNT(*) AS accepted
		FROM events e
		JOIN event_rsvps r ON r.event_id = e.id AND r.status = 'ACCEPTED'
		GROUP BY e.id, e.capacity
		HAVING COUNT(*) > e.capacity
		ORDER BY e.id
	`

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("audit events", err)
	}
	defer rows.Close()

	out := make([]EventOvercommit, 0)
	for rows.Next() {
		var o EventOvercommit
		if err := rows.Scan(&o.EventID, &o.Capacity, &o.Accepted); err != nil {
			fail(span, err)
			return nil, domain.NewStorageError("scan audit event", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("audit events", err)
	}

	span.SetAttributes(attribute.Int("violations", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// FindOvercommittedResources lists (resource, date) pools from `from` onward
// whose APPROVED quantities exceed the resource's total count
func (s *PostgresStore) FindOvercommittedResources(ctx context.Context, from time.Time) ([]ResourceOvercommit, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.audit.overcommitted_resources")
	defer span.End()

	day := domain.DateOf(from)
	span.SetAttributes(attribute.String("from", domain.FormatDate(day)))

	query := `
		SELECT a.resource_id, a.event_date, r.total_count, SUM(a.quantity_needed) AS allocated
		FROM event_resource_allocations a
		JOIN resources r ON r.id = a.resource_id
		WHERE a.status = 'APPROVED' AND a.event_date >= $1
		GROUP BY a.resource_id, a.event_date, r.total_count
		HAVING SUM(a.quantity_needed) > r.total_count
		ORDER BY a.event_date, a.resource_id
	`

	rows, err := s.q.Query(ctx, query, day)
	if err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("audit resources", err)
	}
	defer rows.Close()

	out := make([]ResourceOvercommit, 0)
	for rows.Next() {
		var o ResourceOvercommit
		if err := rows.Scan(&o.ResourceID, &o.Date, &o.TotalCount, &o.Allocated); err != nil {
			fail(span, err)
			return nil, domain.NewStorageError("scan audit resource", err)
		}
		o.Date = domain.DateOf(o.Date)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("audit resources", err)
	}

	span.SetAttributes(attribute.Int("violations", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}
