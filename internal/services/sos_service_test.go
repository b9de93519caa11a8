package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

func createSOS(t *testing.T, env *testEnv, svc *SOSServiceImpl, requester *models.User) *models.SOSRequest {
	t.Helper()
	sos, err := svc.CreateSOS(nil, requester.ID, &dto.CreateSOSRequest{
		Title:       "Flat tyre",
		Description: "Need a jack",
		Latitude:    ptr(43.2389),
		Longitude:   ptr(76.8897),
		Address:     "Dostyk 5",
	})
	require.NoError(t, err)
	return sos
}

func respond(t *testing.T, env *testEnv, svc *SOSServiceImpl, helper *models.User, sosID uint64) *models.SOSHelper {
	t.Helper()
	h, err := svc.Respond(nil, helper.ID, sosID, &dto.RespondSOSRequest{Latitude: ptr(43.2400), Longitude: ptr(76.8900)})
	require.NoError(t, err)
	return h
}

func completeStatus() *models.SOSStatus {
	s := models.SOSStatusCompleted
	return &s
}

func TestCreateSOS_NotifiesNearbyUsers(t *testing.T) {
	env := newTestEnv()
	svc := env.sosService()
	requester := env.store.addUser(models.User{Name: "Requester", CurrentLatitude: ptr(43.2389), CurrentLongitude: ptr(76.8897)})
	near := env.store.addUser(models.User{Name: "Near", CurrentLatitude: ptr(43.2500), CurrentLongitude: ptr(76.9000)})
	far := env.store.addUser(models.User{Name: "Far", CurrentLatitude: ptr(51.1694), CurrentLongitude: ptr(71.4491)})
	noLocation := env.store.addUser(models.User{Name: "Nowhere"})

	sos := createSOS(t, env, svc, requester)
	assert.Equal(t, models.SOSStatusActive, sos.Status)
	assert.Equal(t, models.DefaultSOSReward, sos.RewardAmount)

	assert.Len(t, env.store.notificationsOf(near.ID, models.NotificationSOSNearby), 1)
	assert.Empty(t, env.store.notificationsOf(far.ID, ""))
	assert.Empty(t, env.store.notificationsOf(noLocation.ID, ""))
	assert.Empty(t, env.store.notificationsOf(requester.ID, ""))
	assert.Equal(t, 1, env.pusher.sent[near.ID])
}

func TestRespond(t *testing.T) {
	env := newTestEnv()
	svc := env.sosService()
	requester := env.store.addUser(models.User{Name: "Requester"})
	helper := env.store.addUser(models.User{Name: "Helper"})
	sos := createSOS(t, env, svc, requester)

	_, err := svc.Respond(nil, requester.ID, sos.ID, &dto.RespondSOSRequest{Latitude: ptr(43.0), Longitude: ptr(76.0)})
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	h := respond(t, env, svc, helper, sos.ID)
	assert.Equal(t, models.SOSHelperStatusResponding, h.Status)
	assert.InDelta(t, 0.13, h.Distance, 0.02)
	assert.Len(t, env.store.notificationsOf(requester.ID, models.NotificationSOSResponse), 1)

	_, err = svc.Respond(nil, helper.ID, sos.ID, &dto.RespondSOSRequest{Latitude: ptr(43.0), Longitude: ptr(76.0)})
	requireAppError(t, err, apperrors.CodeConflict)
}

func TestUpdateSOS_CompletionAward(t *testing.T) {
	t.Run("confirmed helper wins over first responder", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		first := env.store.addUser(models.User{Name: "First"})
		chosen := env.store.addUser(models.User{Name: "Chosen"})
		sos := createSOS(t, env, svc, requester)
		respond(t, env, svc, first, sos.ID)
		env.now = env.now.Add(time.Minute)
		respond(t, env, svc, chosen, sos.ID)

		resp, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus(), HelperID: ptr(chosen.ID)})
		require.NoError(t, err)
		require.NotNil(t, resp.PointsOutcome)
		assert.True(t, resp.PointsAwarded)
		assert.Equal(t, chosen.ID, *resp.RecipientID)

		assert.Equal(t, PointsSOSHelped, env.store.user(chosen.ID).TotalPoints)
		assert.Equal(t, 1, env.store.user(chosen.ID).HelpedSOS)
		assert.Zero(t, env.store.user(first.ID).TotalPoints)
		assert.Zero(t, env.store.user(requester.ID).TotalPoints)
		assert.Len(t, env.store.notificationsOf(chosen.ID, models.NotificationSOSHelped), 1)
	})

	t.Run("falls back to first responder", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		first := env.store.addUser(models.User{Name: "First"})
		second := env.store.addUser(models.User{Name: "Second"})
		sos := createSOS(t, env, svc, requester)
		respond(t, env, svc, first, sos.ID)
		env.now = env.now.Add(time.Minute)
		respond(t, env, svc, second, sos.ID)

		resp, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus()})
		require.NoError(t, err)
		assert.Equal(t, first.ID, *resp.RecipientID)
		assert.Equal(t, 100, env.store.user(first.ID).TotalPoints)
		assert.Zero(t, env.store.user(second.ID).TotalPoints)
	})

	t.Run("requester as helper is ignored", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		sos := createSOS(t, env, svc, requester)

		resp, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus(), HelperID: ptr(requester.ID)})
		require.NoError(t, err)
		assert.Equal(t, requester.ID, *resp.RecipientID)

		stored := env.store.user(requester.ID)
		assert.Equal(t, PointsSOSCompleted, stored.TotalPoints)
		assert.Equal(t, 1, stored.CompletedSOS)
		assert.Zero(t, stored.HelpedSOS)
		require.Len(t, env.store.entries, 1)
		assert.Equal(t, ReasonSOSCompleted, env.store.entries[0].Reason)
	})

	t.Run("already completed is not awarded again", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		sos := createSOS(t, env, svc, requester)

		_, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus()})
		require.NoError(t, err)
		resp, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus()})
		require.NoError(t, err)
		assert.Nil(t, resp.PointsOutcome)
		assert.Equal(t, 100, env.store.user(requester.ID).TotalPoints)
	})

	t.Run("ledger failure keeps completion", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		sos := createSOS(t, env, svc, requester)
		env.store.ledgerErr = errLedgerDown

		resp, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus()})
		require.NoError(t, err)
		assert.False(t, resp.PointsAwarded)
		require.NotNil(t, resp.PointsError)
		assert.Equal(t, models.SOSStatusCompleted, env.store.sos[sos.ID].Status)
		assert.Zero(t, env.store.user(requester.ID).CompletedSOS)
	})

	t.Run("unknown helper is rejected", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		sos := createSOS(t, env, svc, requester)

		_, err := svc.UpdateSOS(nil, requester.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus(), HelperID: ptr(uint64(9999))})
		appErr := requireAppError(t, err, apperrors.CodeValidationFailed)
		assert.Contains(t, appErr.Details, "helper_id")
		assert.Equal(t, models.SOSStatusActive, env.store.sos[sos.ID].Status)
		assert.Nil(t, env.store.sos[sos.ID].HelperID)
		assert.Empty(t, env.store.entries)
	})

	t.Run("only requester can update", func(t *testing.T) {
		env := newTestEnv()
		svc := env.sosService()
		requester := env.store.addUser(models.User{Name: "Requester"})
		other := env.store.addUser(models.User{Name: "Other"})
		sos := createSOS(t, env, svc, requester)

		_, err := svc.UpdateSOS(nil, other.ID, sos.ID, &dto.UpdateSOSRequest{Status: completeStatus()})
		requireAppError(t, err, apperrors.CodeForbidden)
		assert.Equal(t, models.SOSStatusActive, env.store.sos[sos.ID].Status)
	})
}

func TestPointsService_Award(t *testing.T) {
	env := newTestEnv()
	points := env.points()
	user := env.store.addUser(models.User{Name: "Saver", TotalPoints: 30})

	balance, err := points.Award(nil, PointsAward{UserID: user.ID, Delta: 20, Reason: "bonus", Counter: repositories.CounterHelpedSOS})
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
	assert.Equal(t, 1, env.store.user(user.ID).HelpedSOS)

	// отрицательный баланс откатывает все, включая счетчик
	_, err = points.Award(nil, PointsAward{UserID: user.ID, Delta: -80, Reason: "penalty", Counter: repositories.CounterHelpedSOS})
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, 50, env.store.user(user.ID).TotalPoints)
	assert.Equal(t, 1, env.store.user(user.ID).HelpedSOS)

	history, err := points.History(nil, user.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, history.Total)
	entries := history.Data.([]models.PointsEntry)
	assert.Equal(t, 50, entries[0].BalanceAfter)
}

func TestJobCompletionPoints(t *testing.T) {
	assert.Equal(t, 50, JobCompletionPoints(0))
	assert.Equal(t, 50, JobCompletionPoints(4.99))
	assert.Equal(t, 60, JobCompletionPoints(5))
}
