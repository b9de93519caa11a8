package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

func newAddressService(env *testEnv) *AddressServiceImpl {
	svc := NewAddressService(env.repos.Address, env.repos.User, env.repos.Transactor).(*AddressServiceImpl)
	svc.now = env.clock
	return svc
}

func defaultsOf(env *testEnv, userID uint64) []uint64 {
	var ids []uint64
	for id, a := range env.store.addresses {
		if a.UserID == userID && a.IsDefault {
			ids = append(ids, id)
		}
	}
	return ids
}

func TestAddressDefaultIsExclusive(t *testing.T) {
	env := newTestEnv()
	svc := newAddressService(env)
	user := env.store.addUser(models.User{Name: "Aigerim", Phone: ptr("+77010000000")})

	home, err := svc.CreateAddress(nil, user.ID, &dto.CreateAddressRequest{Label: "Home", Address: "Abay 1", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "Aigerim", *home.Recipient)
	assert.Equal(t, "+77010000000", *home.Phone)
	require.NotNil(t, home.LastUsedAt)

	work, err := svc.CreateAddress(nil, user.ID, &dto.CreateAddressRequest{Label: "Work", Address: "Dostyk 2", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, []uint64{work.ID}, defaultsOf(env, user.ID))

	_, err = svc.SetDefault(nil, user.ID, home.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{home.ID}, defaultsOf(env, user.ID))

	isDefault := true
	_, err = svc.UpdateAddress(nil, user.ID, work.ID, &dto.UpdateAddressRequest{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.Equal(t, []uint64{work.ID}, defaultsOf(env, user.ID))

	// другой пользователь не затрагивается
	other := env.store.addUser(models.User{Name: "Other"})
	theirs, err := svc.CreateAddress(nil, other.ID, &dto.CreateAddressRequest{Label: "Home", Address: "Satpaev 3", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, []uint64{work.ID}, defaultsOf(env, user.ID))
	assert.Equal(t, []uint64{theirs.ID}, defaultsOf(env, other.ID))
}

func TestAddressOwnership(t *testing.T) {
	env := newTestEnv()
	svc := newAddressService(env)
	owner := env.store.addUser(models.User{Name: "Owner"})
	other := env.store.addUser(models.User{Name: "Other"})
	addr, err := svc.CreateAddress(nil, owner.ID, &dto.CreateAddressRequest{Label: "Home", Address: "Abay 1"})
	require.NoError(t, err)

	_, err = svc.SetDefault(nil, other.ID, addr.ID)
	requireAppError(t, err, apperrors.CodeForbidden)
	err = svc.DeleteAddress(nil, other.ID, addr.ID)
	requireAppError(t, err, apperrors.CodeForbidden)

	require.NoError(t, svc.DeleteAddress(nil, owner.ID, addr.ID))
	err = svc.DeleteAddress(nil, owner.ID, addr.ID)
	requireAppError(t, err, apperrors.CodeNotFound)
}
