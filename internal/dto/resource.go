package dto

import "github.com/Incognitol07/event-management-system-sub001/internal/domain"

// CreateResourceRequest represents request to register a resource
type CreateResourceRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Category   string `json:"category,omitempty"`
	TotalCount int    `json:"total_count" binding:"min=0"`
}

// ResourceResponse represents a resource in API response
type ResourceResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	TotalCount int    `json:"total_count"`
}

// ResourceFromDomain converts a domain resource to ResourceResponse
func ResourceFromDomain(r *domain.Resource) *ResourceResponse {
	return &ResourceResponse{
		ID:         r.ID,
		Name:       r.Name,
		Category:   r.Category,
		TotalCount: r.TotalCount,
	}
}
