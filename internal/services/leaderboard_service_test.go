package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

func TestOutranks(t *testing.T) {
	a := &models.User{BaseModel: models.BaseModel{ID: 7}, TotalPoints: 100, CompletedJobs: 2}
	b := &models.User{BaseModel: models.BaseModel{ID: 3}, TotalPoints: 100, CompletedJobs: 2}
	assert.True(t, Outranks(b, a), "lower id wins a full tie")
	assert.False(t, Outranks(a, b))

	a.HelpedSOS = 1
	assert.True(t, Outranks(a, b))

	b.TotalPoints = 101
	assert.True(t, Outranks(b, a))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(1, 0))
	assert.Equal(t, 100.0, Percentile(1, 4))
	assert.Equal(t, 25.0, Percentile(4, 4))
	assert.Equal(t, 66.67, Percentile(2, 3))
	assert.Equal(t, 0.0, Percentile(10, 3))
}

func TestLeaderboard_Global(t *testing.T) {
	env := newTestEnv()
	svc := NewLeaderboardService(env.repos.User, env.repos.Address, 0)

	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 10}, Name: "Tie high id", TotalPoints: 200})
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 5}, Name: "Tie low id", TotalPoints: 200})
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 20}, Name: "Top", TotalPoints: 500})
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 30}, Name: "Idle"})
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 40}, Name: "Helper only", HelpedSOS: 1})

	resp, err := svc.Leaderboard(nil, &dto.LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, dto.CategoryAll, resp.Category)

	var ids []uint64
	for i, e := range resp.Entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Nil(t, e.CategoryJobsCount)
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []uint64{20, 5, 10, 40}, ids)

	limited, err := svc.Leaderboard(nil, &dto.LeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited.Entries, 2)
}

func TestLeaderboard_GlobalTieOnPointsUsesCompletedJobs(t *testing.T) {
	env := newTestEnv()
	svc := NewLeaderboardService(env.repos.User, env.repos.Address, 0)
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 5}, Name: "Helper", TotalPoints: 100, HelpedSOS: 3})
	env.store.addUser(models.User{BaseModel: models.BaseModel{ID: 10}, Name: "Worker", TotalPoints: 100, CompletedJobs: 4})

	resp, err := svc.Leaderboard(nil, &dto.LeaderboardQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, uint64(10), resp.Entries[0].ID)
	assert.Equal(t, uint64(5), resp.Entries[1].ID)

	// позиция в рейтинге согласована с порядком таблицы
	r, err := svc.UserRanking(nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Rank)
}

func TestLeaderboard_Category(t *testing.T) {
	env := newTestEnv()
	svc := NewLeaderboardService(env.repos.User, env.repos.Address, 0)
	customer := env.store.addUser(models.User{Name: "Customer"})
	cleaner := env.store.addUser(models.User{Name: "Cleaner", CompletedJobs: 2, TotalPoints: 100})
	busy := env.store.addUser(models.User{Name: "Busy", CompletedJobs: 9, TotalPoints: 900})

	for i := 0; i < 2; i++ {
		env.store.addJob(models.Job{
			CustomerID: customer.ID, AssignedWorkerID: ptr(cleaner.ID), Category: models.JobCategoryCleaning,
			Status: models.JobStatusCompleted, Price: decimal.NewFromInt(40),
		})
	}
	env.store.addJob(models.Job{
		CustomerID: customer.ID, AssignedWorkerID: ptr(busy.ID), Category: models.JobCategoryDelivery,
		Status: models.JobStatusCompleted, Price: decimal.NewFromInt(10),
	})

	resp, err := svc.Leaderboard(nil, &dto.LeaderboardQuery{Category: string(models.JobCategoryCleaning)})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	entry := resp.Entries[0]
	assert.Equal(t, cleaner.ID, entry.ID)
	assert.EqualValues(t, 2, *entry.CategoryJobsCount)
	assert.True(t, decimal.NewFromInt(80).Equal(entry.TotalEarnings))

	_, err = svc.Leaderboard(nil, &dto.LeaderboardQuery{Category: "astronomy"})
	requireAppError(t, err, apperrors.CodeValidationFailed)
}

func TestLeaderboard_Location(t *testing.T) {
	env := newTestEnv()
	svc := NewLeaderboardService(env.repos.User, env.repos.Address, 0)
	near := env.store.addUser(models.User{Name: "Near", TotalPoints: 10})
	far := env.store.addUser(models.User{Name: "Far", TotalPoints: 1000})
	homeless := env.store.addUser(models.User{Name: "No address", TotalPoints: 500})

	env.store.addresses[1001] = models.Address{BaseModel: models.BaseModel{ID: 1001}, UserID: near.ID, Address: "Abay 1", Latitude: ptr(43.24), Longitude: ptr(76.89)}
	env.store.addresses[1002] = models.Address{BaseModel: models.BaseModel{ID: 1002}, UserID: far.ID, Address: "Astana", Latitude: ptr(51.17), Longitude: ptr(71.45)}

	resp, err := svc.Leaderboard(nil, &dto.LeaderboardQuery{
		LocationQuery: dto.LocationQuery{Latitude: ptr(43.25), Longitude: ptr(76.90), Radius: ptr(5.0)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, near.ID, resp.Entries[0].ID)
	require.NotNil(t, resp.Entries[0].Distance)
	assert.Equal(t, "Abay 1", *resp.Entries[0].CurrentAddress)
	assert.NotContains(t, []uint64{far.ID, homeless.ID}, resp.Entries[0].ID)

	_, err = svc.Leaderboard(nil, &dto.LeaderboardQuery{LocationQuery: dto.LocationQuery{Latitude: ptr(43.25)}})
	requireAppError(t, err, apperrors.CodeValidationFailed)
}

func TestUserRanking(t *testing.T) {
	env := newTestEnv()
	svc := NewLeaderboardService(env.repos.User, env.repos.Address, 0)
	first := env.store.addUser(models.User{Name: "First", TotalPoints: 300})
	second := env.store.addUser(models.User{Name: "Second", TotalPoints: 100})
	third := env.store.addUser(models.User{Name: "Third", TotalPoints: 100})
	idle := env.store.addUser(models.User{Name: "Idle"})

	r, err := svc.UserRanking(nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Rank)
	assert.Equal(t, 3, r.TotalUsers)
	assert.Equal(t, 100.0, r.Percentile)

	r, err = svc.UserRanking(nil, third.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rank, "higher id loses the tie with %d", second.ID)
	assert.Equal(t, 33.33, r.Percentile)

	// неактивный пользователь получает ранг после всех участников
	r, err = svc.UserRanking(nil, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rank)
	assert.Equal(t, 0.0, r.Percentile)

	_, err = svc.UserRanking(nil, 9999)
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestSelectRepresentativeAddresses(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)
	addr := func(id, userID uint64, isDefault bool, lastUsed *time.Time, created time.Time, lat float64) models.Address {
		return models.Address{
			BaseModel:  models.BaseModel{ID: id, CreatedAt: created},
			UserID:     userID,
			IsDefault:  isDefault,
			LastUsedAt: lastUsed,
			Latitude:   ptr(lat),
			Longitude:  ptr(76.9),
		}
	}

	got := SelectRepresentativeAddresses([]models.Address{
		// пользователь 1: default важнее свежего last_used_at
		addr(1, 1, false, &later, base, 43.1),
		addr(2, 1, true, nil, base, 43.2),
		// пользователь 2: last_used_at важнее created_at
		addr(3, 2, false, nil, later, 43.3),
		addr(4, 2, false, &base, base, 43.4),
		// пользователь 3: без last_used_at берется самый новый
		addr(5, 3, false, nil, base, 43.5),
		addr(6, 3, false, nil, later, 43.6),
		// пользователь 4: нулевые координаты не учитываются
		addr(7, 4, true, nil, base, 0),
	})

	assert.Equal(t, uint64(2), got[1].ID)
	assert.Equal(t, uint64(4), got[2].ID)
	assert.Equal(t, uint64(6), got[3].ID)
	assert.NotContains(t, got, uint64(4))
}
