package disclosure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic/internal/types"
)

func TestAdjustIncreaseFromDefault(t *testing.T) {
	adj := Adjust(types.DefaultSophistication(), Increase)

	assert.True(t, adj.Changed)
	assert.Equal(t, types.ComplexityModerate, adj.Level.Complexity)
	assert.Equal(t, 2, adj.Level.Depth)
	assert.True(t, adj.Level.TechnicalDetail, "technical detail arrives when complexity leaves simple")
	assert.True(t, adj.Level.IncludeExamples, "moderate still carries examples")
	assert.False(t, adj.Level.RequiresValidation)
	assert.Contains(t, adj.Impact, "simple to moderate")
}

func TestAdjustDecreaseAtFloorHolds(t *testing.T) {
	adj := Adjust(types.DefaultSophistication(), Decrease)

	assert.False(t, adj.Changed)
	assert.Equal(t, types.DefaultSophistication(), adj.Level)
	assert.Contains(t, adj.Impact, "simplest")
}

func TestAdjustIncreaseAtCeilingHolds(t *testing.T) {
	top := types.SophisticationForTier(types.ComplexityExpert, types.MaxDepth)

	adj := Adjust(top, Increase)

	assert.False(t, adj.Changed)
	assert.Equal(t, top, adj.Level)
	assert.Contains(t, adj.Impact, "most sophisticated")
}

func TestAdjustWalksTheFullLadder(t *testing.T) {
	level := types.DefaultSophistication()
	want := []types.ComplexityTier{
		types.ComplexityModerate,
		types.ComplexityAdvanced,
		types.ComplexityExpert,
	}

	for i, tier := range want {
		adj := Adjust(level, Increase)
		require.True(t, adj.Changed)
		assert.Equal(t, tier, adj.Level.Complexity)
		assert.Equal(t, i+2, adj.Level.Depth)
		level = adj.Level
	}

	assert.True(t, level.RequiresValidation, "validation demanded only at expert")
	assert.False(t, level.IncludeExamples)
}

func TestAdjustIsReversibleFromInteriorTiers(t *testing.T) {
	start := types.SophisticationForTier(types.ComplexityModerate, 3)

	up := Adjust(start, Increase)
	require.True(t, up.Changed)

	down := Adjust(up.Level, Decrease)
	require.True(t, down.Changed)

	assert.Equal(t, start, down.Level)
}

func TestAdjustDepthMovesAloneAtClampedTier(t *testing.T) {
	level := types.SophisticationForTier(types.ComplexityExpert, 3)

	adj := Adjust(level, Increase)

	assert.True(t, adj.Changed)
	assert.Equal(t, types.ComplexityExpert, adj.Level.Complexity)
	assert.Equal(t, 4, adj.Level.Depth)
	assert.Contains(t, adj.Impact, "deeper")
}

func TestAdjustDecreaseFromExpert(t *testing.T) {
	top := types.SophisticationForTier(types.ComplexityExpert, types.MaxDepth)

	adj := Adjust(top, Decrease)

	assert.True(t, adj.Changed)
	assert.Equal(t, types.ComplexityAdvanced, adj.Level.Complexity)
	assert.Equal(t, 4, adj.Level.Depth)
	assert.False(t, adj.Level.RequiresValidation)
	assert.Contains(t, adj.Impact, "validation demands are lifted")
}

func TestAdjustUnknownDirectionHolds(t *testing.T) {
	level := types.SophisticationForTier(types.ComplexityAdvanced, 3)

	adj := Adjust(level, Direction("sideways"))

	assert.False(t, adj.Changed)
	assert.Equal(t, level, adj.Level)
	assert.Contains(t, adj.Impact, "unknown direction")
}

func TestAdjustNormalizesInvalidInput(t *testing.T) {
	adj := Adjust(types.SophisticationLevel{Complexity: "bananas", Depth: 99}, Increase)

	assert.Equal(t, types.ComplexityModerate, adj.Level.Complexity)
	assert.Equal(t, 2, adj.Level.Depth)
}

func TestFlagInvariantsAcrossAllTiers(t *testing.T) {
	tiers := []types.ComplexityTier{
		types.ComplexitySimple,
		types.ComplexityModerate,
		types.ComplexityAdvanced,
		types.ComplexityExpert,
	}

	for _, tier := range tiers {
		for depth := types.MinDepth; depth <= types.MaxDepth; depth++ {
			level := types.SophisticationForTier(tier, depth)

			assert.Equal(t, tier != types.ComplexitySimple, level.TechnicalDetail, "tier %s", tier)
			assert.Equal(t, tier == types.ComplexityExpert, level.RequiresValidation, "tier %s", tier)
			expectExamples := tier == types.ComplexitySimple || tier == types.ComplexityModerate
			assert.Equal(t, expectExamples, level.IncludeExamples, "tier %s", tier)
		}
	}
}

func TestForExpertiseTier(t *testing.T) {
	assert.Equal(t, types.ComplexitySimple, ForExpertiseTier(types.TierBeginner, 1).Complexity)
	assert.Equal(t, types.ComplexityModerate, ForExpertiseTier(types.TierIntermediate, 2).Complexity)
	assert.Equal(t, types.ComplexityAdvanced, ForExpertiseTier(types.TierAdvanced, 3).Complexity)

	// Depth is clamped on the way through.
	assert.Equal(t, types.MaxDepth, ForExpertiseTier(types.TierAdvanced, 12).Depth)
	assert.Equal(t, types.MinDepth, ForExpertiseTier(types.TierBeginner, -2).Depth)
}
