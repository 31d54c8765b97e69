package repository

import (
	"context"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// EventRepository reads and approves stored events
type EventRepository interface {
	CreateEvent(ctx context.Context, event *domain.BaseEvent) error
	GetEvent(ctx context.Context, id string) (*domain.BaseEvent, error)
	// GetEventForUpdate loads the event and holds a row lock until the
	// enclosing transaction ends. Outside a transaction it behaves like GetEvent.
	GetEventForUpdate(ctx context.Context, id string) (*domain.BaseEvent, error)
	SetApproved(ctx context.Context, id string, approved bool) error
}

// RSVPRepository stores RSVPs keyed by (event, user)
type RSVPRepository interface {
	CountAccepted(ctx context.Context, eventID string) (int, error)
	GetRSVP(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error)
	// InsertRSVP fails with domain.ErrAlreadyExists when the key is taken
	InsertRSVP(ctx context.Context, rsvp *domain.EventRSVP) error
	UpdateRSVP(ctx context.Context, rsvp *domain.EventRSVP) error
	ListRSVPs(ctx context.Context, eventID string) ([]*domain.EventRSVP, error)
}

// ResourceRepository reads bookable inventory
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource *domain.Resource) error
	GetResource(ctx context.Context, id string) (*domain.Resource, error)
	GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error)
}

// AllocationRepository stores resource allocations keyed by (event, resource)
type AllocationRepository interface {
	// ListApprovedForDate returns APPROVED allocations of resourceID for
	// events dated on date
	ListApprovedForDate(ctx context.Context, resourceID string, date time.Time) ([]domain.EventResourceAllocation, error)
	GetAllocation(ctx context.Context, eventID, resourceID string) (*domain.EventResourceAllocation, error)
	// InsertAllocation fails with domain.ErrAlreadyExists when the key is taken
	InsertAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error
	UpdateAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error
	ListAllocations(ctx context.Context, eventID string) ([]*domain.EventResourceAllocation, error)
}

// EventOvercommit is an event whose ACCEPTED RSVPs exceed its capacity
type EventOvercommit struct {
	EventID  string
	Capacity int
	Accepted int
}

// ResourceOvercommit is a (resource, date) pool whose APPROVED sum exceeds inventory
type ResourceOvercommit struct {
	ResourceID string
	Date       time.Time
	TotalCount int
	Allocated  int
}

// AuditRepository finds invariant violations left by older write paths
type AuditRepository interface {
	FindOvercommittedEvents(ctx context.Context) ([]EventOvercommit, error)
	FindOvercommittedResources(ctx context.Context, from time.Time) ([]ResourceOvercommit, error)
}

// Repositories is the set of operations available inside a transaction
type Repositories interface {
	EventRepository
	RSVPRepository
	ResourceRepository
	AllocationRepository
}

// TxFunc runs inside Store.WithinTx
type TxFunc func(ctx context.Context, repos Repositories) error

// Store is the persistence capability injected into services
type Store interface {
	Repositories
	AuditRepository

	// WithinTx runs fn in one transaction. A nil return commits, any error rolls back.
	WithinTx(ctx context.Context, fn TxFunc) error
	HealthCheck(ctx context.Context) error
}
