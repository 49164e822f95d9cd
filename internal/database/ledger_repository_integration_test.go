package database

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	testPool, err = Connect(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func setupTestRepo(t *testing.T) *LedgerRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, err := testPool.Exec(context.Background(), `TRUNCATE respect_events, respect_balances`)
	require.NoError(t, err)

	return NewLedgerRepo(testPool)
}

func createTestUser(t *testing.T, repo *LedgerRepo) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, repo.CreateBalance(context.Background(), userID))
	return userID
}

func TestCreateBalance_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.CreateBalance(ctx, userID))
	require.NoError(t, repo.CreateBalance(ctx, userID))

	respect, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, respect)
}

func TestGetBalance_MissingUser(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAppendEvent_WritesEventAndBalanceTogether(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	userID := createTestUser(t, repo)

	err := repo.AppendEvent(ctx, userID, "REVIEW_USEFUL", 6, map[string]any{"reviewId": "r1", "weight": 1.25})
	require.NoError(t, err)

	respect, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 6, respect)

	events, err := repo.ListEvents(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "REVIEW_USEFUL", events[0].Source)
	assert.Equal(t, 6, events[0].Points)
	assert.Equal(t, "r1", events[0].Meta["reviewId"])
	assert.InDelta(t, 1.25, events[0].Meta["weight"], 0.001)
}

func TestAppendEvent_MissingUserRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.AppendEvent(ctx, uuid.New(), "REVIEW_LIKE", 2, nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// No orphan event may survive the rollback.
	var count int
	err = testPool.QueryRow(ctx, `SELECT COUNT(*) FROM respect_events`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAppendEvent_ConcurrentDeltasDoNotLoseUpdates(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	userID := createTestUser(t, repo)

	const callers = 50
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AppendEvent(ctx, userID, "LOAD_TEST", 1, nil))
		}()
	}
	wg.Wait()

	respect, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, callers, respect)

	events, err := repo.ListEvents(ctx, userID, callers+1)
	require.NoError(t, err)
	assert.Len(t, events, callers)
}

func TestSumPositiveInRange_FiltersPenaltiesSourceAndWindow(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	userID := createTestUser(t, repo)
	other := createTestUser(t, repo)

	require.NoError(t, repo.AppendEvent(ctx, userID, "REVIEW_LIKE", 10, nil))
	require.NoError(t, repo.AppendEvent(ctx, userID, "REVIEW_LIKE", 5, nil))
	require.NoError(t, repo.AppendEvent(ctx, userID, "REVIEW_LIKE", -4, nil))    // penalty ignored
	require.NoError(t, repo.AppendEvent(ctx, userID, "REVIEW_USEFUL", 6, nil))   // other source ignored
	require.NoError(t, repo.AppendEvent(ctx, other, "REVIEW_LIKE", 100, nil))    // other user ignored

	now := time.Now().UTC()
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)

	total, err := repo.SumPositiveInRange(ctx, userID, "REVIEW_LIKE", from, to)
	require.NoError(t, err)
	assert.Equal(t, 15, total)

	// A window in the past sums to zero.
	total, err = repo.SumPositiveInRange(ctx, userID, "REVIEW_LIKE", from.Add(-48*time.Hour), to.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestListPositiveBalances_KeysetPagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		userID := createTestUser(t, repo)
		require.NoError(t, repo.AppendEvent(ctx, userID, "SEED", 10+i, nil))
	}
	zeroUser := createTestUser(t, repo)
	negUser := createTestUser(t, repo)
	require.NoError(t, repo.AppendEvent(ctx, negUser, "MODERATION_REMOVAL", -3, nil))

	var seen []domain.RespectBalance
	after := uuid.Nil
	for {
		batch, err := repo.ListPositiveBalances(ctx, after, 2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		seen = append(seen, batch...)
		after = batch[len(batch)-1].UserID
	}

	assert.Len(t, seen, 5)
	for _, b := range seen {
		assert.Greater(t, b.Respect, 0)
		assert.NotEqual(t, zeroUser, b.UserID)
		assert.NotEqual(t, negUser, b.UserID)
	}
}

func TestListEvents_NewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	userID := createTestUser(t, repo)

	require.NoError(t, repo.AppendEvent(ctx, userID, "FIRST", 1, nil))
	require.NoError(t, repo.AppendEvent(ctx, userID, "SECOND", 2, nil))
	require.NoError(t, repo.AppendEvent(ctx, userID, "THIRD", 3, nil))

	events, err := repo.ListEvents(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "THIRD", events[0].Source)
	assert.Equal(t, "SECOND", events[1].Source)
}

func TestTopBalances_OrdersByRespect(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	low := createTestUser(t, repo)
	high := createTestUser(t, repo)
	mid := createTestUser(t, repo)
	require.NoError(t, repo.AppendEvent(ctx, low, "SEED", 10, nil))
	require.NoError(t, repo.AppendEvent(ctx, high, "SEED", 1000, nil))
	require.NoError(t, repo.AppendEvent(ctx, mid, "SEED", 100, nil))

	top, err := repo.TopBalances(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, high, top[0].UserID)
	assert.Equal(t, mid, top[1].UserID)
}
