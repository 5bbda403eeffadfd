package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
)

// refreshBuffer: tokens expiring inside this window are refreshed up front
// so long sync runs don't die mid-way.
const refreshBuffer = 5 * time.Minute

// MeliTokenService is the single place that decides whether a stored access
// token is still usable or must be refreshed. Every route that talks to the
// marketplace goes through it.
type MeliTokenService interface {
	ValidAccessToken(ctx context.Context, account *model.MeliAccount) (string, error)
}

type meliTokenService struct {
	accountRepo repository.MeliAccountRepository
	client      *meli.Client
}

func NewMeliTokenService(accountRepo repository.MeliAccountRepository, client *meli.Client) MeliTokenService {
	return &meliTokenService{
		accountRepo: accountRepo,
		client:      client,
	}
}

func (s *meliTokenService) ValidAccessToken(ctx context.Context, account *model.MeliAccount) (string, error) {
	if !account.ExpiresWithin(refreshBuffer) {
		return account.AccessToken, nil
	}

	log.Printf("Refreshing marketplace token for org %s", account.OrganizationID)

	token, err := s.client.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh marketplace token: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := s.accountRepo.UpdateTokens(account.OrganizationID, token.AccessToken, token.RefreshToken, expiresAt); err != nil {
		// The pair we hold is valid even if persisting it failed; the next
		// run will refresh again.
		log.Printf("Failed to persist refreshed token for org %s: %v", account.OrganizationID, err)
	}

	account.AccessToken = token.AccessToken
	account.RefreshToken = token.RefreshToken
	account.ExpiresAt = expiresAt

	return token.AccessToken, nil
}
