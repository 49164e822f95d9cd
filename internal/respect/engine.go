package respect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/coffeeaccount/respect-service/internal/domain"
	"github.com/coffeeaccount/respect-service/internal/metrics"
)

// decayChunkSize bounds memory during the decay batch: users are streamed in
// keyset-paginated chunks instead of one unbounded SELECT.
const decayChunkSize = 500

// Cache is the optional read cache for user respect lookups. Implementations
// must treat misses and backend errors identically (return ok=false); the
// engine always falls back to the ledger store.
type Cache interface {
	GetUserRespect(ctx context.Context, userID uuid.UUID) (domain.UserRespect, bool)
	SetUserRespect(ctx context.Context, userID uuid.UUID, value domain.UserRespect)
	Invalidate(ctx context.Context, userID uuid.UUID)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, bool)
	SetLeaderboard(ctx context.Context, limit int, entries []domain.LeaderboardEntry)
}

// Engine is the respect ledger engine. It owns every read and write of user
// reputation: computing deltas, enforcing per-source daily caps, and keeping
// the running balance in sync with the append-only event log.
//
// Engine is stateless between calls and safe for concurrent use. The only
// implicit state is the per-user, per-source earned-today window, which is
// recomputed from the event log on every call; there is no counter to reset
// at UTC midnight.
type Engine struct {
	store  domain.LedgerStore
	clock  clockwork.Clock
	cache  Cache
	points map[string]int
	caps   map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache attaches a read cache for GetUserRespect.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithPointOverrides replaces default point values per source key.
func WithPointOverrides(overrides map[string]int) Option {
	return func(e *Engine) {
		for key, pts := range overrides {
			e.points[key] = pts
		}
	}
}

// WithCapOverrides replaces daily cap values per source key. A zero cap
// blocks all positive awards for that source.
func WithCapOverrides(overrides map[string]int) Option {
	return func(e *Engine) {
		for key, limit := range overrides {
			e.caps[key] = limit
		}
	}
}

// NewEngine creates the engine around a ledger store and a clock. The clock
// drives the UTC day window for cap aggregation; production wiring passes
// clockwork.NewRealClock().
func NewEngine(store domain.LedgerStore, clock clockwork.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		clock:  clock,
		points: make(map[string]int, len(defaultPoints)),
		caps:   make(map[string]int, len(defaultDailyCaps)),
	}
	for key, pts := range defaultPoints {
		e.points[key] = pts
	}
	for key, limit := range defaultDailyCaps {
		e.caps[key] = limit
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Award grants (or removes) respect and records a RespectEvent.
//
// Fractional points are truncated toward zero. Positive awards against a
// capped source are clamped to whatever remains of today's cap; once the cap
// is exhausted the call reports {0, capped} without writing anything. The
// event insert and balance update land in one transaction or not at all.
func (e *Engine) Award(ctx context.Context, userID uuid.UUID, source string, rawPoints float64, meta map[string]any) (domain.AwardResult, error) {
	sourceKey, err := NormalizeSource(source)
	if err != nil {
		return domain.AwardResult{}, err
	}
	points := int(math.Trunc(rawPoints))

	capped := false
	if limit, ok := e.caps[sourceKey]; ok && points > 0 {
		earned, err := e.earnedToday(ctx, userID, sourceKey)
		if err != nil {
			return domain.AwardResult{}, fmt.Errorf("failed to aggregate daily earnings: %w", err)
		}
		remaining := limit - earned
		if remaining <= 0 {
			metrics.AwardsTotal.WithLabelValues(metricSourceLabel(sourceKey), "capped").Inc()
			return domain.AwardResult{AppliedPoints: 0, Capped: true}, nil
		}
		if points > remaining {
			points = remaining
			capped = true
		}
	}

	if points == 0 {
		metrics.AwardsTotal.WithLabelValues(metricSourceLabel(sourceKey), "noop").Inc()
		return domain.AwardResult{AppliedPoints: 0, Capped: capped}, nil
	}

	if err := e.store.AppendEvent(ctx, userID, sourceKey, points, meta); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LedgerTxFailures.Inc()
		}
		return domain.AwardResult{}, err
	}

	e.invalidate(ctx, userID)
	metrics.AwardsTotal.WithLabelValues(metricSourceLabel(sourceKey), "applied").Inc()
	metrics.PointsAppliedTotal.WithLabelValues(metricSourceLabel(sourceKey), direction(points)).Add(math.Abs(float64(points)))

	return domain.AwardResult{AppliedPoints: points, Capped: capped}, nil
}

// Penalize removes respect: the magnitude is forced negative and delegated to
// Award. The cap check only triggers for positive deltas, so penalties always
// go through in full.
func (e *Engine) Penalize(ctx context.Context, userID uuid.UUID, source string, points float64, meta map[string]any) (domain.AwardResult, error) {
	return e.Award(ctx, userID, source, -math.Abs(points), meta)
}

// AwardFromReviewReaction converts a review reaction into an award for the
// review's author. The base value per reaction kind is scaled by the quality
// weight of the reactor and rounded to the nearest integer.
func (e *Engine) AwardFromReviewReaction(ctx context.Context, reviewAuthorID uuid.UUID, reaction domain.ReactionType, reactorRespect int, reviewID string) (domain.AwardResult, error) {
	var fallback int
	switch reaction {
	case domain.ReactionLike:
		fallback = 2
	case domain.ReactionUseful:
		fallback = 6
	case domain.ReactionFavorite:
		fallback = 8
	default:
		return domain.AwardResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownReaction, reaction)
	}

	sourceKey := "REVIEW_" + string(reaction)
	base, ok := e.points[sourceKey]
	if !ok {
		base = fallback
	}

	weight := QualityWeight(reactorRespect)
	points := math.Round(float64(base) * weight)

	meta := map[string]any{"reviewId": reviewID, "weight": weight}
	return e.Award(ctx, reviewAuthorID, sourceKey, points, meta)
}

// EditorsPickBoost grants the configured editorial-feature bonus.
func (e *Engine) EditorsPickBoost(ctx context.Context, userID uuid.UUID) (domain.AwardResult, error) {
	meta := map[string]any{"reason": "editors_pick"}
	return e.Award(ctx, userID, SourceEditorFeatured, float64(e.points[SourceEditorFeatured]), meta)
}

// CommunityMilestone grants the configured milestone bonus, tagging the event
// with the milestone key (e.g. "100_useful_reviews").
func (e *Engine) CommunityMilestone(ctx context.Context, userID uuid.UUID, milestone string) (domain.AwardResult, error) {
	meta := map[string]any{"milestone": milestone}
	return e.Award(ctx, userID, SourceCommunityMilestone, float64(e.points[SourceCommunityMilestone]), meta)
}

// GetUserRespect reads the current balance and its tier. A user without a
// balance row reads as zero respect rather than an error.
func (e *Engine) GetUserRespect(ctx context.Context, userID uuid.UUID) (domain.UserRespect, error) {
	if e.cache != nil {
		if cached, ok := e.cache.GetUserRespect(ctx, userID); ok {
			return cached, nil
		}
	}

	balance, err := e.store.GetBalance(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		balance = 0
	} else if err != nil {
		return domain.UserRespect{}, err
	}

	value := domain.UserRespect{Respect: balance, Level: LevelFor(balance)}
	if e.cache != nil {
		e.cache.SetUserRespect(ctx, userID, value)
	}
	return value, nil
}

// ListEvents returns the most recent ledger entries for a user, newest first.
func (e *Engine) ListEvents(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RespectEvent, error) {
	return e.store.ListEvents(ctx, userID, limit)
}

// Leaderboard returns the top balances with their tiers. Results are cached
// under a short TTL rather than invalidated per write; a slightly stale
// leaderboard is acceptable, a cache flush per award is not.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if e.cache != nil {
		if entries, ok := e.cache.GetLeaderboard(ctx, limit); ok {
			return entries, nil
		}
	}

	balances, err := e.store.TopBalances(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(balances))
	for _, b := range balances {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:  b.UserID,
			Respect: b.Respect,
			Level:   LevelFor(b.Respect),
		})
	}

	if e.cache != nil {
		e.cache.SetLeaderboard(ctx, limit, entries)
	}
	return entries, nil
}

// ProvisionUser creates the zero-balance row for a new account. Idempotent.
func (e *Engine) ProvisionUser(ctx context.Context, userID uuid.UUID) error {
	return e.store.CreateBalance(ctx, userID)
}

// DecayAmount is the positive number of points one decay run removes from a
// balance: floor(balance*percent), never less than one point.
func DecayAmount(balance int, percent float64) int {
	p := math.Max(0, math.Min(percent, 1))
	return int(math.Max(1, math.Floor(float64(balance)*p)))
}

// ApplyMonthlyDecay reduces every positive balance by percent (clamped to
// [0,1]), with a floor of one point so even small balances move. Each user's
// event+balance pair is one transaction; the batch as a whole is not atomic.
// A failure mid-batch leaves earlier users decayed, and the error reports how
// many. Returns the number of users decayed.
func (e *Engine) ApplyMonthlyDecay(ctx context.Context, percent float64) (int, error) {
	p := math.Max(0, math.Min(percent, 1))
	start := e.clock.Now()
	affected := 0

	var after uuid.UUID
	for {
		batch, err := e.store.ListPositiveBalances(ctx, after, decayChunkSize)
		if err != nil {
			return affected, fmt.Errorf("failed to list positive balances: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, b := range batch {
			decay := -DecayAmount(b.Respect, p)
			if err := e.store.AppendEvent(ctx, b.UserID, SourceMonthlyDecay, decay, nil); err != nil {
				metrics.LedgerTxFailures.Inc()
				return affected, fmt.Errorf("decay failed for user %s after %d users: %w", b.UserID, affected, err)
			}
			e.invalidate(ctx, b.UserID)
			affected++
		}

		after = batch[len(batch)-1].UserID
		if len(batch) < decayChunkSize {
			break
		}
	}

	elapsed := e.clock.Now().Sub(start)
	metrics.DecayRunsTotal.Inc()
	metrics.DecayUsersTotal.Add(float64(affected))
	metrics.DecayDuration.Observe(elapsed.Seconds())
	slog.Info("monthly decay applied", "percent", p, "affected_users", affected, "duration_ms", elapsed.Milliseconds())

	return affected, nil
}

// earnedToday sums the positive points already recorded today (UTC) for the
// user and source. Recomputed from the event log on every call; penalties are
// excluded so they never eat into the cap.
func (e *Engine) earnedToday(ctx context.Context, userID uuid.UUID, sourceKey string) (int, error) {
	from, to := todayRangeUTC(e.clock.Now())
	return e.store.SumPositiveInRange(ctx, userID, sourceKey, from, to)
}

func (e *Engine) invalidate(ctx context.Context, userID uuid.UUID) {
	if e.cache != nil {
		e.cache.Invalidate(ctx, userID)
	}
}

// todayRangeUTC returns the inclusive bounds of the current UTC calendar day:
// [00:00:00.000, 23:59:59.999].
func todayRangeUTC(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Millisecond)
	return from, to
}

func direction(points int) string {
	if points < 0 {
		return "penalty"
	}
	return "award"
}
