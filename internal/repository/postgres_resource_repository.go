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

// CreateResource inserts a new resource
func (s *PostgresStore) CreateResource(ctx context.Context, resource *domain.Resource) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.resource.create")
	defer span.End()

	span.SetAttributes(attribute.String("resource_id", resource.ID))

	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO resources (id, name, category, total_count, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := s.q.Exec(ctx, query, resource.ID, resource.Name, resource.Category, resource.TotalCount, resource.CreatedAt)
	if err != nil {
		fail(span, err)
		return storageErr("create resource", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetResource retrieves a resource by its ID
func (s *PostgresStore) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	return s.getResource(ctx, "repo.postgres.resource.get", id, "")
}

// GetResourceForUpdate retrieves a resource and locks its row
func (s *PostgresStore) GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error) {
	return s.getResource(ctx, "repo.postgres.resource.get_for_update", id, " FOR UPDATE")
}

func (s *PostgresStore) getResource(ctx context.Context, spanName, id, suffix string) (*domain.Resource, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	span.SetAttributes(attribute.String("resource_id", id))

	query := `SELECT id, name, category, total_count, created_at FROM resources WHERE id = $1` + suffix

	var r domain.Resource
	err := s.q.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name, &r.Category, &r.TotalCount, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "resource not found")
			return nil, domain.ErrResourceNotFound
		}
		fail(span, err)
		return nil, domain.NewStorageError("get resource", err)
	}

	span.SetStatus(codes.Ok, "")
	return &r, nil
}

const allocationColumns = `event_id, resource_id, event_date, quantity_needed, status, notes, updated_at`

// ListApprovedForDate lists APPROVED allocations of a resource on a date
func (s *PostgresStore) ListApprovedForDate(ctx context.Context, resourceID string, date time.Time) ([]domain.EventResourceAllocation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.allocation.list_approved_for_date")
	defer span.End()

	day := domain.DateOf(date)
	span.SetAttributes(
		attribute.String("resource_id", resourceID),
		attribute.String("date", domain.FormatDate(day)),
	)

	query := `SELECT ` + allocationColumns + ` FROM event_resource_allocations
		WHERE resource_id = $1 AND event_date = $2 AND status = 'APPROVED'`

	rows, err := s.q.Query(ctx, query, resourceID, day)
	if err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list approved allocations", err)
	}
	defer rows.Close()

	allocations := make([]domain.EventResourceAllocation, 0)
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			fail(span, err)
			return nil, domain.NewStorageError("scan allocation", err)
		}
		allocations = append(allocations, *a)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list approved allocations", err)
	}

	span.SetAttributes(attribute.Int("count", len(allocations)))
	span.SetStatus(codes.Ok, "")
	return allocations, nil
}

// GetAllocation retrieves the allocation of resourceID for eventID
func (s *PostgresStore) GetAllocation(ctx context.Context, eventID, resourceID string) (*domain.EventResourceAllocation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.allocation.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("resource_id", resourceID))

	query := `SELECT ` + allocationColumns + ` FROM event_resource_allocations
		WHERE event_id = $1 AND resource_id = $2`

	a, err := scanAllocation(s.q.QueryRow(ctx, query, eventID, resourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "allocation not found")
			return nil, domain.ErrAllocationNotFound
		}
		fail(span, err)
		return nil, domain.NewStorageError("get allocation", err)
	}

	span.SetStatus(codes.Ok, "")
	return a, nil
}

// InsertAllocation inserts a new allocation
func (s *PostgresStore) InsertAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.allocation.insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", alloc.EventID),
		attribute.String("resource_id", alloc.ResourceID),
		attribute.Int("quantity", alloc.QuantityNeeded),
		attribute.String("status", string(alloc.Status)),
	)

	alloc.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO event_resource_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.q.Exec(ctx, query,
		alloc.EventID,
		alloc.ResourceID,
		domain.DateOf(alloc.EventDate),
		alloc.QuantityNeeded,
		string(alloc.Status),
		alloc.Notes,
		alloc.UpdatedAt,
	)
	if err != nil {
		fail(span, err)
		return storageErr("insert allocation", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateAllocation overwrites quantity, status and notes of an allocation
func (s *PostgresStore) UpdateAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.allocation.update")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", alloc.EventID),
		attribute.String("resource_id", alloc.ResourceID),
		attribute.Int("quantity", alloc.QuantityNeeded),
		attribute.String("status", string(alloc.Status)),
	)

	alloc.UpdatedAt = time.Now().UTC()

	query := `UPDATE event_resource_allocations
		SET event_date = $3, quantity_needed = $4, status = $5, notes = $6, updated_at = $7
		WHERE event_id = $1 AND resource_id = $2`

	tag, err := s.q.Exec(ctx, query,
		alloc.EventID,
		alloc.ResourceID,
		domain.DateOf(alloc.EventDate),
		alloc.QuantityNeeded,
		string(alloc.Status),
		alloc.Notes,
		alloc.UpdatedAt,
	)
	if err != nil {
		fail(span, err)
		return domain.NewStorageError("update allocation", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "allocation not found")
		return domain.ErrAllocationNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListAllocations lists every allocation of an event
func (s *PostgresStore) ListAllocations(ctx context.Context, eventID string) ([]*domain.EventResourceAllocation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.allocation.list")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `SELECT ` + allocationColumns + ` FROM event_resource_allocations
		WHERE event_id = $1 ORDER BY resource_id`

	rows, err := s.q.Query(ctx, query, eventID)
	if err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list allocations", err)
	}
	defer rows.Close()

	allocations := make([]*domain.EventResourceAllocation, 0)
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			fail(span, err)
			return nil, domain.NewStorageError("scan allocation", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, domain.NewStorageError("list allocations", err)
	}

	span.SetStatus(codes.Ok, "")
	return allocations, nil
}

func scanAllocation(row pgx.Row) (*domain.EventResourceAllocation, error) {
	var (
		a      domain.EventResourceAllocation
		status string
	)
	err := row.Scan(&a.EventID, &a.ResourceID, &a.EventDate, &a.QuantityNeeded, &status, &a.Notes, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.EventDate = domain.DateOf(a.EventDate)
	a.Status = domain.AllocationStatus(status)
	return &a, nil
}
