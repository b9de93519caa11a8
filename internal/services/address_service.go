package services

import (
	"errors"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

type AddressService interface {
	ListAddresses(db *gorm.DB, userID uint64) ([]models.Address, error)
	CreateAddress(db *gorm.DB, userID uint64, req *dto.CreateAddressRequest) (*models.Address, error)
	UpdateAddress(db *gorm.DB, userID, addressID uint64, req *dto.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(db *gorm.DB, userID, addressID uint64) error
	// SetDefault - один default на пользователя, в одной транзакции
	SetDefault(db *gorm.DB, userID, addressID uint64) (*models.Address, error)
}

type AddressServiceImpl struct {
	addressRepo repositories.AddressRepository
	userRepo    repositories.UserRepository
	txr         repositories.Transactor
	now         Clock
}

func NewAddressService(
	addressRepo repositories.AddressRepository,
	userRepo repositories.UserRepository,
	txr repositories.Transactor,
) AddressService {
	return &AddressServiceImpl{
		addressRepo: addressRepo,
		userRepo:    userRepo,
		txr:         txr,
		now:         systemClock,
	}
}

func (s *AddressServiceImpl) ListAddresses(db *gorm.DB, userID uint64) ([]models.Address, error) {
	addresses, err := s.addressRepo.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return addresses, nil
}

func (s *AddressServiceImpl) CreateAddress(db *gorm.DB, userID uint64, req *dto.CreateAddressRequest) (*models.Address, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}

	now := s.now()
	address := &models.Address{
		UserID:     userID,
		Label:      req.Label,
		Address:    req.Address,
		Recipient:  req.Recipient,
		Phone:      req.Phone,
		Notes:      req.Notes,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IsDefault:  req.IsDefault,
		LastUsedAt: &now,
	}
	if address.Recipient == nil {
		address.Recipient = strPtr(user.Name)
	}
	if address.Phone == nil {
		address.Phone = user.Phone
	}

	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		if err := s.addressRepo.Create(tx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return s.addressRepo.UnsetDefaults(tx, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleAddressError)
	}
	return address, nil
}

func (s *AddressServiceImpl) UpdateAddress(db *gorm.DB, userID, addressID uint64, req *dto.UpdateAddressRequest) (*models.Address, error) {
	address, err := s.ownedAddress(db, userID, addressID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		address.Label = *req.Label
	}
	if req.Address != nil {
		address.Address = *req.Address
	}
	if req.Recipient != nil {
		address.Recipient = req.Recipient
	}
	if req.Phone != nil {
		address.Phone = req.Phone
	}
	if req.Notes != nil {
		address.Notes = req.Notes
	}
	if req.Latitude != nil {
		address.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		address.Longitude = req.Longitude
	}
	if req.IsDefault != nil {
		address.IsDefault = *req.IsDefault
	}

	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		if err := s.addressRepo.Update(tx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return s.addressRepo.UnsetDefaults(tx, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleAddressError)
	}
	return address, nil
}

func (s *AddressServiceImpl) DeleteAddress(db *gorm.DB, userID, addressID uint64) error {
	if _, err := s.ownedAddress(db, userID, addressID); err != nil {
		return err
	}
	if err := s.addressRepo.Delete(db, addressID); err != nil {
		return handleAddressError(err)
	}
	return nil
}

func (s *AddressServiceImpl) SetDefault(db *gorm.DB, userID, addressID uint64) (*models.Address, error) {
	address, err := s.ownedAddress(db, userID, addressID)
	if err != nil {
		return nil, err
	}
	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		if err := s.addressRepo.UnsetDefaults(tx, userID, address.ID); err != nil {
			return err
		}
		return s.addressRepo.SetDefault(tx, address.ID)
	})
	if err != nil {
		return nil, appErrorOr(err, handleAddressError)
	}
	address.IsDefault = true
	return address, nil
}

func (s *AddressServiceImpl) ownedAddress(db *gorm.DB, userID, addressID uint64) (*models.Address, error) {
	address, err := s.addressRepo.FindByID(db, addressID)
	if err != nil {
		return nil, handleAddressError(err)
	}
	if address.UserID != userID {
		return nil, apperrors.Forbidden("address", "Address belongs to another user")
	}
	return address, nil
}

func handleAddressError(err error) error {
	if errors.Is(err, repositories.ErrAddressNotFound) {
		return apperrors.NotFound("address", "Address not found").WithError(err)
	}
	return apperrors.InternalError(err)
}
