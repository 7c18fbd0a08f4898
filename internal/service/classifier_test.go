package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-asset-tracker/internal/model"
)

func TestClassify_DecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		sameRoom     bool
		readerAngle  string
		statusIn     bool
		wantCategory string
		wantDesc     string
	}{
		{"same room, inner reader, inside", true, model.AngleIn, true, model.CategoryNormal, "normal"},
		{"same room, inner reader, outside", true, model.AngleIn, false, model.CategoryNormal, "normal!"},
		{"same room, outer reader, inside", true, model.AngleOut, true, model.CategoryNormal, "normal!"},
		{"same room, outer reader, outside", true, model.AngleOut, false, model.CategoryNormal,
			"read by outer reader, last position already outside same room"},
		{"different room, outer reader, inside", false, model.AngleOut, true, model.CategoryAnomaly,
			"different-room move, but not read by the previous room's outer reader"},
		{"different room, outer reader, outside", false, model.AngleOut, false, model.CategoryNormal,
			"different-room move"},
		{"different room, inner reader, inside", false, model.AngleIn, true, model.CategoryAnomaly,
			"different-room move, not read by outer reader"},
		{"different room, inner reader, outside", false, model.AngleIn, false, model.CategoryNormal,
			"different-room move"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.sameRoom, tt.readerAngle, tt.statusIn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantDesc, got.Description)
		})
	}
}

func TestClassify_UnknownAngle(t *testing.T) {
	_, err := Classify(true, "sideways", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnclassifiedMovement)

	_, err = Classify(false, "", false)
	assert.ErrorIs(t, err, ErrUnclassifiedMovement)
}

func TestClassify_Deterministic(t *testing.T) {
	first, err := Classify(false, model.AngleOut, true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := Classify(false, model.AngleOut, true)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
