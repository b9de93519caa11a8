package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestJobKind_ReadsAdditionalInfo(t *testing.T) {
	cases := []struct {
		name string
		info datatypes.JSONMap
		want JobKind
	}{
		{"nil map", nil, JobKindPublic},
		{"flag missing", datatypes.JSONMap{"foo": "bar"}, JobKindPublic},
		{"bool true", datatypes.JSONMap{AdditionalInfoPrivateOrder: true}, JobKindPrivate},
		{"bool false", datatypes.JSONMap{AdditionalInfoPrivateOrder: false}, JobKindPublic},
		{"string true", datatypes.JSONMap{AdditionalInfoPrivateOrder: "true"}, JobKindPrivate},
		{"number one", datatypes.JSONMap{AdditionalInfoPrivateOrder: float64(1)}, JobKindPrivate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := &Job{AdditionalInfo: tc.info}
			assert.Equal(t, tc.want, job.Kind())
		})
	}
}

func TestJobSetKind_KeepsOtherKeys(t *testing.T) {
	job := &Job{AdditionalInfo: datatypes.JSONMap{"floor": float64(3)}}
	job.SetKind(JobKindPrivate)

	assert.True(t, job.IsPrivate())
	assert.Equal(t, true, job.AdditionalInfo[AdditionalInfoPrivateOrder])
	assert.Equal(t, float64(3), job.AdditionalInfo["floor"])
}

func TestJobApply_HappyPath(t *testing.T) {
	job := &Job{Status: JobStatusPending}

	require.NoError(t, job.Apply(TransitionAcceptApplication))
	assert.Equal(t, JobStatusInProgress, job.Status)

	require.NoError(t, job.Apply(TransitionWorkerComplete))
	assert.Equal(t, JobStatusPendingCompletion, job.Status)

	require.NoError(t, job.Apply(TransitionCustomerConfirm))
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestJobApply_RejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		status     JobStatus
		transition JobTransition
	}{
		{JobStatusInProgress, TransitionCustomerConfirm},
		{JobStatusCompleted, TransitionCustomerConfirm},
		{JobStatusPending, TransitionWorkerComplete},
		{JobStatusInProgress, TransitionDispute},
		{JobStatusCompleted, TransitionCancel},
		{JobStatusCompleted, TransitionAdminCancel},
		{JobStatusInProgress, TransitionAcceptPrivate},
		{JobStatusCancelled, TransitionAssign},
	}
	for _, tc := range cases {
		t.Run(string(tc.status)+"/"+string(tc.transition), func(t *testing.T) {
			job := &Job{Status: tc.status}
			err := job.Apply(tc.transition)

			var tErr *TransitionError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, tc.status, tErr.Current)
			assert.Equal(t, tc.status, job.Status, "status must not change on a rejected transition")
		})
	}
}

func TestJobApply_CancelFromAnyNonCompleted(t *testing.T) {
	for _, s := range []JobStatus{JobStatusPending, JobStatusInProgress, JobStatusPendingCompletion, JobStatusDisputed} {
		job := &Job{Status: s}
		require.NoError(t, job.Apply(TransitionCancel), s)
		assert.Equal(t, JobStatusCancelled, job.Status)
	}
}

func TestJobStatus_Reachable(t *testing.T) {
	assert.True(t, JobStatusPendingCompletion.IsReachable())
	assert.False(t, JobStatusAccepted.IsReachable())
	assert.False(t, JobStatusRejected.IsReachable())
	assert.False(t, JobStatus("finished").IsReachable())
}

func TestJobCategory_IsValid(t *testing.T) {
	assert.True(t, JobCategoryPetCare.IsValid())
	assert.False(t, JobCategory("petcare").IsValid())
	assert.Len(t, JobCategories, 9)
}
