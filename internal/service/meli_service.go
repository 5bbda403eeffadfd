package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMissingAuthCode = errors.New("missing authorization code")

// MeliService manages the marketplace account linkage: consent URL, the
// OAuth callback exchange, disconnect, and the sandbox helper.
type MeliService interface {
	AuthorizeURL(orgID uuid.UUID) string
	HandleCallback(ctx context.Context, code string, orgID uuid.UUID) error
	Disconnect(ctx context.Context, orgID uuid.UUID) error
	CreateTestUser(ctx context.Context, orgID uuid.UUID, siteID string) (*meli.TestUser, error)
	GetAccount(orgID uuid.UUID) (*model.MeliAccount, error)
}

type meliService struct {
	accountRepo  repository.MeliAccountRepository
	tokenService MeliTokenService
	client       *meli.Client
}

func NewMeliService(accountRepo repository.MeliAccountRepository, tokenService MeliTokenService, client *meli.Client) MeliService {
	return &meliService{
		accountRepo:  accountRepo,
		tokenService: tokenService,
		client:       client,
	}
}

func (s *meliService) AuthorizeURL(orgID uuid.UUID) string {
	// The state parameter carries the organization through the redirect.
	return s.client.AuthorizeURL("", orgID.String())
}

func (s *meliService) HandleCallback(ctx context.Context, code string, orgID uuid.UUID) error {
	if code == "" {
		return ErrMissingAuthCode
	}

	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	account := &model.MeliAccount{
		OrganizationID: orgID,
		MeliUserID:     token.UserID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	return s.accountRepo.Upsert(account)
}

// Disconnect revokes the grant upstream on a best-effort basis; the local
// delete is the authoritative action and succeeds regardless.
func (s *meliService) Disconnect(ctx context.Context, orgID uuid.UUID) error {
	account, err := s.accountRepo.FindByOrganization(orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrMeliNotConnected
		}
		return err
	}

	if accessToken, err := s.tokenService.ValidAccessToken(ctx, account); err == nil {
		if err := s.client.RevokeGrant(ctx, accessToken, account.MeliUserID); err != nil {
			log.Printf("Best-effort revoke failed for org %s: %v", orgID, err)
		}
	} else {
		log.Printf("Skipping upstream revoke for org %s: %v", orgID, err)
	}

	return s.accountRepo.DeleteByOrganization(orgID)
}

func (s *meliService) CreateTestUser(ctx context.Context, orgID uuid.UUID, siteID string) (*meli.TestUser, error) {
	account, err := s.accountRepo.FindByOrganization(orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMeliNotConnected
		}
		return nil, err
	}

	accessToken, err := s.tokenService.ValidAccessToken(ctx, account)
	if err != nil {
		return nil, err
	}

	if siteID == "" {
		siteID = "MLB" // Default to Brazil
	}
	return s.client.CreateTestUser(ctx, accessToken, siteID)
}

func (s *meliService) GetAccount(orgID uuid.UUID) (*model.MeliAccount, error) {
	account, err := s.accountRepo.FindByOrganization(orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMeliNotConnected
		}
		return nil, err
	}
	return account, nil
}
