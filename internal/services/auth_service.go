// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bytemarket/marketplace-backend/internal/config"
	"github.com/bytemarket/marketplace-backend/internal/models"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// AuthService is the identity-provider glue: parties register an address with
// an access key and exchange it for a token carrying that address. The ledger
// core never sees any of this — it only receives the resulting address.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

var (
	ErrInvalidCredentials  = errors.New("invalid address or access key")
	ErrAddressAlreadyInUse = errors.New("address is already registered")
)

type RegisterRequest struct {
	Address   string `json:"address" validate:"required,party_address"`
	AccessKey string `json:"access_key" validate:"required,min=8,max=128"`
}

type TokenRequest struct {
	Address   string `json:"address" validate:"required,party_address"`
	AccessKey string `json:"access_key" validate:"required"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*models.Party, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}

	var count int64
	if err := s.db.Model(&models.Party{}).Where("address = ?", req.Address).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrAddressAlreadyInUse
	}

	party := &models.Party{Address: req.Address}
	if err := party.SetAccessKey(req.AccessKey); err != nil {
		return nil, fmt.Errorf("failed to hash access key: %w", err)
	}

	if err := s.db.Create(party).Error; err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}

	return party, nil
}

func (s *AuthService) Token(req *TokenRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", &ValidationError{Field: "request", Reason: err.Error()}
	}

	var party models.Party
	if err := s.db.Where("address = ?", req.Address).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	if err := party.CheckAccessKey(req.AccessKey); err != nil {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateJWT(party.Address, s.cfg.JWT.TokenTTL)
}
