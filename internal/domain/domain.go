package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// RespectBalance is the per-user running total. It is only ever mutated through
// the ledger: every change is paired with a RespectEvent in the same transaction.
type RespectBalance struct {
	UserID    uuid.UUID `db:"user_id"`
	Respect   int       `db:"respect"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RespectEvent is one immutable ledger entry. Points is the delta actually
// applied (post-cap, post-truncation), never zero.
type RespectEvent struct {
	ID        int64          `db:"id"`
	UserID    uuid.UUID      `db:"user_id"`
	Source    string         `db:"source"`
	Points    int            `db:"points"`
	Meta      map[string]any `db:"meta"`
	CreatedAt time.Time      `db:"created_at"`
}

// Level is the named reputation tier derived from a balance.
type Level string

const (
	LevelBronze  Level = "Bronze"
	LevelPrata   Level = "Prata"
	LevelOuro    Level = "Ouro"
	LevelPlatina Level = "Platina"
	LevelEbano   Level = "Ébano"
)

// ReactionType identifies a review reaction that earns the review's author respect.
type ReactionType string

const (
	ReactionLike     ReactionType = "LIKE"
	ReactionUseful   ReactionType = "USEFUL"
	ReactionFavorite ReactionType = "FAVORITE"
)

// --- Shared value types ---

// AwardResult reports what an award actually did. AppliedPoints zero with
// Capped true means the daily cap was already exhausted; zero with Capped
// false means the request carried no effective points.
type AwardResult struct {
	AppliedPoints int  `json:"appliedPoints"`
	Capped        bool `json:"capped"`
}

// UserRespect is the read model returned to callers.
type UserRespect struct {
	Respect int   `json:"respect"`
	Level   Level `json:"level"`
}

// LeaderboardEntry is one row of the top-balance listing.
type LeaderboardEntry struct {
	UserID  uuid.UUID `json:"userId"`
	Respect int       `json:"respect"`
	Level   Level     `json:"level"`
}

// --- Interfaces ---

// LedgerStore abstracts the two persistence collaborators (balance store and
// append-only event store). AppendEvent is the only write path and must apply
// the event insert and the balance delta atomically, with the delta expressed
// relative to the stored value so concurrent appends never lose updates.
type LedgerStore interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	CreateBalance(ctx context.Context, userID uuid.UUID) error
	AppendEvent(ctx context.Context, userID uuid.UUID, source string, points int, meta map[string]any) error
	SumPositiveInRange(ctx context.Context, userID uuid.UUID, source string, from, to time.Time) (int, error)
	ListPositiveBalances(ctx context.Context, afterUserID uuid.UUID, limit int) ([]RespectBalance, error)
	ListEvents(ctx context.Context, userID uuid.UUID, limit int) ([]RespectEvent, error)
	TopBalances(ctx context.Context, limit int) ([]RespectBalance, error)
}

// RespectService is the engine's contract; handlers route all respect
// operations through here.
type RespectService interface {
	Award(ctx context.Context, userID uuid.UUID, source string, rawPoints float64, meta map[string]any) (AwardResult, error)
	Penalize(ctx context.Context, userID uuid.UUID, source string, points float64, meta map[string]any) (AwardResult, error)
	AwardFromReviewReaction(ctx context.Context, reviewAuthorID uuid.UUID, reaction ReactionType, reactorRespect int, reviewID string) (AwardResult, error)
	EditorsPickBoost(ctx context.Context, userID uuid.UUID) (AwardResult, error)
	CommunityMilestone(ctx context.Context, userID uuid.UUID, milestone string) (AwardResult, error)
	GetUserRespect(ctx context.Context, userID uuid.UUID) (UserRespect, error)
	ListEvents(ctx context.Context, userID uuid.UUID, limit int) ([]RespectEvent, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	ProvisionUser(ctx context.Context, userID uuid.UUID) error
	ApplyMonthlyDecay(ctx context.Context, percent float64) (int, error)
}
