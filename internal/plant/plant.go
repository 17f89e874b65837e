// Package plant provides the plant collection model and its storage capability.
package plant

import (
	"context"
	"time"
)

// Plant is a single plant in a user's collection
type Plant struct {
	ID               string
	Name             string
	Type             string
	Location         string
	Description      string
	PhotoURL         string
	PlantedDate      *time.Time // May be nil if unknown
	LastWatered      *time.Time // Nil until the first watering is recorded
	LastFertilized   *time.Time // Nil until the first fertilizing is recorded
	CareInstructions map[string]string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository manages persistent storage of a plant collection
type Repository interface {
	// ListAll returns all plants, most recently added first
	ListAll(ctx context.Context) ([]Plant, error)
	// Get returns the plant with the given ID, or nil if no such plant exists
	Get(ctx context.Context, id string) (*Plant, error)
	// Add stores a new plant and returns its generated ID
	Add(ctx context.Context, p Plant) (string, error)
	// RecordWatering sets the plant's last-watered timestamp to now
	RecordWatering(ctx context.Context, id string) error
	// RecordFertilizing sets the plant's last-fertilized timestamp to now
	RecordFertilizing(ctx context.Context, id string) error
	// Delete removes a plant
	Delete(ctx context.Context, id string) error
}
