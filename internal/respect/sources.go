package respect

import (
	"strings"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

// Canonical source keys. Sources outside this catalog are accepted but carry
// no default points and no daily cap.
const (
	SourceReviewUseful       = "REVIEW_USEFUL"
	SourceReviewLike         = "REVIEW_LIKE"
	SourceReviewFavorite     = "REVIEW_FAVORITE"
	SourceGuideUseful        = "GUIDE_USEFUL"
	SourceGuideLike          = "GUIDE_LIKE"
	SourceCommentUpvote      = "COMMENT_UPVOTE"
	SourceNewFollower        = "NEW_FOLLOWER"
	SourceEditorFeatured     = "EDITOR_FEATURED"
	SourceCommunityMilestone = "COMMUNITY_MILESTONE"
	SourceModerationRemoval  = "MODERATION_REMOVAL"
	SourceMonthlyDecay       = "MONTHLY_DECAY"
)

// defaultPoints is the suggested score per source, tunable per deployment.
var defaultPoints = map[string]int{
	SourceReviewUseful:       6,
	SourceReviewLike:         2,
	SourceReviewFavorite:     8,
	SourceGuideUseful:        8,
	SourceGuideLike:          2,
	SourceCommentUpvote:      1,
	SourceNewFollower:        1,
	SourceEditorFeatured:     20,
	SourceCommunityMilestone: 50,
	SourceModerationRemoval:  -10,
}

// defaultDailyCaps bounds positive points per source per UTC day (anti-farm).
// Penalties are never capped, so negative-only sources have no entry here.
var defaultDailyCaps = map[string]int{
	SourceReviewLike:         60,
	SourceReviewUseful:       120,
	SourceReviewFavorite:     120,
	SourceGuideLike:          60,
	SourceGuideUseful:        120,
	SourceCommentUpvote:      40,
	SourceNewFollower:        20,
	SourceEditorFeatured:     100,
	SourceCommunityMilestone: 200,
}

// knownSources is the closed catalog used to keep metric label cardinality bounded.
var knownSources = map[string]struct{}{
	SourceReviewUseful:       {},
	SourceReviewLike:         {},
	SourceReviewFavorite:     {},
	SourceGuideUseful:        {},
	SourceGuideLike:          {},
	SourceCommentUpvote:      {},
	SourceNewFollower:        {},
	SourceEditorFeatured:     {},
	SourceCommunityMilestone: {},
	SourceModerationRemoval:  {},
	SourceMonthlyDecay:       {},
}

// NormalizeSource maps a caller-supplied source to its canonical stored form:
// trimmed and upper-cased. Empty input is rejected.
func NormalizeSource(source string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(source))
	if key == "" {
		return "", domain.ErrEmptySource
	}
	return key, nil
}

// IsKnownSource reports whether key belongs to the canonical catalog.
// Callers must pass an already-normalized key.
func IsKnownSource(key string) bool {
	_, ok := knownSources[key]
	return ok
}

// metricSourceLabel returns the key for known sources and a fixed bucket for
// free-form ones, so custom sources cannot explode metric cardinality.
func metricSourceLabel(key string) string {
	if IsKnownSource(key) {
		return key
	}
	return "CUSTOM"
}
