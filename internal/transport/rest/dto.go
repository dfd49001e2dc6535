package rest

import (
	"time"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

type sessionResponse struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	Status      string         `json:"status"`
	PeriodTag   string         `json:"periodTag"`
	Label       *string        `json:"label,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	Items       []itemResponse `json:"items"`
	StartedAt   time.Time      `json:"startedAt"`
	FinalizedAt *time.Time     `json:"finalizedAt,omitempty"`
	Version     int            `json:"version"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type itemResponse struct {
	ProductID       string  `json:"productId"`
	IsTemp          bool    `json:"isTemp"`
	QuantityFull    int     `json:"quantity_full"`
	QuantityPartial float64 `json:"quantity_partial"`
	Name            *string `json:"name,omitempty"`
	Category        *string `json:"category,omitempty"`
}

func toSessionResponse(s *domain.InventorySession) sessionResponse {
	items := make([]itemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = itemResponse{
			ProductID:       it.Ref.ID.String(),
			IsTemp:          it.IsProvisional(),
			QuantityFull:    it.QuantityFull,
			QuantityPartial: it.QuantityPartial,
			Name:            it.Name,
			Category:        it.Category,
		}
	}
	return sessionResponse{
		ID:          s.ID.String(),
		TenantID:    s.TenantID.String(),
		Status:      s.Status.String(),
		PeriodTag:   s.PeriodTag,
		Label:       s.Label,
		Location:    s.Location,
		Notes:       s.Notes,
		Items:       items,
		StartedAt:   s.StartedAt,
		FinalizedAt: s.FinalizedAt,
		Version:     s.Version,
		UpdatedAt:   s.UpdatedAt,
	}
}

type provisionalResponse struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	SpokenName string     `json:"spokenName"`
	SessionID  *string    `json:"sessionId,omitempty"`
	ResolvedTo *string    `json:"resolvedTo,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

func toProvisionalResponse(p domain.ProvisionalEntry) provisionalResponse {
	resp := provisionalResponse{
		ID:         p.ID.String(),
		TenantID:   p.TenantID.String(),
		SpokenName: p.SpokenName,
		CreatedAt:  p.CreatedAt,
		ResolvedAt: p.ResolvedAt,
	}
	if p.SessionID != nil {
		s := p.SessionID.String()
		resp.SessionID = &s
	}
	if p.ResolvedTo != nil {
		s := p.ResolvedTo.String()
		resp.ResolvedTo = &s
	}
	return resp
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
