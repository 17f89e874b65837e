// Package plantcontext assembles snapshots of a user's plant collection for the
// assistant and formats them into outgoing message text.
package plantcontext

import (
	"context"
	"log"
	"time"

	"github.com/leaflogic/leaflogic/internal/plant"
)

// Snapshot is a point-in-time view of a plant collection, shaped for the assistant
type Snapshot struct {
	PlantCount int            `json:"plantCount"`
	Plants     []PlantSummary `json:"plants"`
}

// PlantSummary is the per-plant slice of a Snapshot
type PlantSummary struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Location         string            `json:"location"`
	Description      string            `json:"description"`
	PlantedDate      *string           `json:"plantedDate"`
	LastWatered      string            `json:"lastWatered"`
	LastFertilized   string            `json:"lastFertilized"`
	CareInstructions map[string]string `json:"careInstructions"`
}

// Provider builds snapshots from a plant repository
type Provider struct {
	repo plant.Repository
}

func NewProvider(repo plant.Repository) *Provider {
	return &Provider{repo: repo}
}

// Snapshot returns a fresh view of the plant collection. Context is best-effort
// enrichment: if the repository fails, an empty snapshot is returned so that
// sending the message is never blocked.
func (p *Provider) Snapshot(ctx context.Context) Snapshot {
	plants, err := p.repo.ListAll(ctx)
	if err != nil {
		log.Printf("Failed to load plant context, continuing without it: %v", err)
		return Snapshot{PlantCount: 0, Plants: []PlantSummary{}}
	}

	summaries := make([]PlantSummary, 0, len(plants))
	for _, pl := range plants {
		summaries = append(summaries, PlantSummary{
			ID:               pl.ID,
			Name:             pl.Name,
			Type:             pl.Type,
			Location:         pl.Location,
			Description:      pl.Description,
			PlantedDate:      formatOptionalDate(pl.PlantedDate),
			LastWatered:      formatCareDate(pl.LastWatered),
			LastFertilized:   formatCareDate(pl.LastFertilized),
			CareInstructions: orEmpty(pl.CareInstructions),
		})
	}

	return Snapshot{
		PlantCount: len(summaries),
		Plants:     summaries,
	}
}

// dateLayout matches the short date rendering shown to users elsewhere in the app
const dateLayout = "Mon Jan 02 2006"

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func formatCareDate(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.Format(dateLayout)
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
