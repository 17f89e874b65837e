package plantcontext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeMessage_EmptySnapshotPassesThrough(t *testing.T) {
	question := "How do I repot a cactus?"
	composed := ComposeMessage(question, Snapshot{PlantCount: 0, Plants: []PlantSummary{}})

	assert.Equal(t, question, composed)
}

func TestComposeMessage_EmbedsQuestionAndPlants(t *testing.T) {
	snapshot := Snapshot{
		PlantCount: 2,
		Plants: []PlantSummary{
			{ID: "p1", Name: "Boston Fern", Type: "fern", Location: "bathroom", LastWatered: "Never", LastFertilized: "Never"},
			{ID: "p2", Name: "Snake Plant", Type: "succulent", Location: "office", LastWatered: "Never", LastFertilized: "Never"},
		},
	}
	question := "Which plant should I water today?"

	composed := ComposeMessage(question, snapshot)

	assert.True(t, strings.HasPrefix(composed, question), "composed message must restate the question first")
	assert.Contains(t, composed, "Boston Fern")
	assert.Contains(t, composed, "Snake Plant")
	assert.Contains(t, composed, contextInstruction)
	assert.Equal(t, 1, strings.Count(composed, contextBlockHeader))
	assert.Equal(t, 1, strings.Count(composed, contextBlockFooter))
}

func TestComposeMessage_SerializesSnapshotAsJSON(t *testing.T) {
	snapshot := Snapshot{
		PlantCount: 1,
		Plants: []PlantSummary{
			{ID: "p1", Name: "Monstera", LastWatered: "Mon Aug 31 2026", LastFertilized: "Never"},
		},
	}

	composed := ComposeMessage("hi", snapshot)

	assert.Contains(t, composed, `"plantCount": 1`)
	assert.Contains(t, composed, `"lastWatered": "Mon Aug 31 2026"`)
}
