package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

func TestJobBuilder(t *testing.T) {
	b := NewJob().
		WithStatus(model.JobStatusBooked).
		WithWindow("2026-01-14T15:00:00Z", "2026-01-14T16:00:00Z").
		WithVehicle(2024, "Subaru", "Outback").
		WithPart(OffSitePart("Tint", "tint-shop", "", ""))

	first := b.Build()
	second := b.WithPart(Part("Wash", "", "")).Build()

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, model.JobStatusBooked, first.Status)
	assert.Equal(t, "2024 Subaru Outback", first.VehicleLabel)
	assert.Equal(t, "Test Customer", first.CustomerLabel)
	require.Len(t, first.Parts, 1, "later builder calls do not leak into built jobs")
	require.Len(t, second.Parts, 2)
	assert.True(t, second.Parts[0].IsOffSite)
	assert.NotEmpty(t, second.Parts[1].ID)
}
