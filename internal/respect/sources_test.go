package respect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

func TestNormalizeSource(t *testing.T) {
	key, err := NormalizeSource("  review_useful ")
	require.NoError(t, err)
	assert.Equal(t, SourceReviewUseful, key)

	key, err = NormalizeSource("Guide_UseFUL")
	require.NoError(t, err)
	assert.Equal(t, SourceGuideUseful, key)

	_, err = NormalizeSource("   ")
	assert.ErrorIs(t, err, domain.ErrEmptySource)
}

func TestIsKnownSource(t *testing.T) {
	assert.True(t, IsKnownSource(SourceMonthlyDecay))
	assert.True(t, IsKnownSource(SourceModerationRemoval))
	assert.False(t, IsKnownSource("STREAM_RAID_BONUS"))
}

func TestMetricSourceLabelBucketsCustomSources(t *testing.T) {
	assert.Equal(t, SourceReviewLike, metricSourceLabel(SourceReviewLike))
	assert.Equal(t, "CUSTOM", metricSourceLabel("ANYTHING_ELSE"))
}

func TestDefaultTablesCoverSameSources(t *testing.T) {
	// Every capped source has a default point value; penalties and decay stay uncapped.
	for key := range defaultDailyCaps {
		_, ok := defaultPoints[key]
		assert.True(t, ok, "capped source %s has no default points", key)
	}
	_, capped := defaultDailyCaps[SourceModerationRemoval]
	assert.False(t, capped)
	_, capped = defaultDailyCaps[SourceMonthlyDecay]
	assert.False(t, capped)
}
