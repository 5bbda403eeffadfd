package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTokenFixture(t *testing.T, handler http.Handler) (MeliTokenService, *gorm.DB, *httptest.Server) {
	t.Helper()
	db := setupTestDB(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := meli.NewClient(meli.Config{
		ClientID:     "test-app",
		ClientSecret: "test-secret",
		BaseURL:      srv.URL,
	})
	require.NoError(t, err)

	return NewMeliTokenService(repository.NewMeliAccountRepo(db), client), db, srv
}

func seedAccount(t *testing.T, db *gorm.DB, expiresAt time.Time) *model.MeliAccount {
	t.Helper()
	org := createTestOrg(t, db)
	account := &model.MeliAccount{
		OrganizationID: org.ID,
		MeliUserID:     123456,
		AccessToken:    "stored-access",
		RefreshToken:   "stored-refresh",
		ExpiresAt:      expiresAt,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestValidAccessTokenUsesStoredToken(t *testing.T) {
	refreshCalls := 0
	svc, db, _ := newTokenFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	account := seedAccount(t, db, time.Now().Add(time.Hour))

	token, err := svc.ValidAccessToken(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, "stored-access", token)
	assert.Equal(t, 0, refreshCalls, "a healthy token must not trigger a refresh")
}

func TestValidAccessTokenRefreshesInsideBuffer(t *testing.T) {
	refreshCalls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "stored-refresh", r.FormValue("refresh_token"))
		refreshCalls++

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-access","refresh_token":"fresh-refresh","expires_in":21600,"user_id":123456}`))
	})
	svc, db, _ := newTokenFixture(t, handler)
	// Expires in 2 minutes: inside the 5-minute buffer.
	account := seedAccount(t, db, time.Now().Add(2*time.Minute))

	token, err := svc.ValidAccessToken(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
	assert.Equal(t, 1, refreshCalls)

	// In-memory account rotated.
	assert.Equal(t, "fresh-access", account.AccessToken)
	assert.Equal(t, "fresh-refresh", account.RefreshToken)
	assert.True(t, account.ExpiresAt.After(time.Now().Add(5*time.Hour)))

	// New pair persisted for the next run.
	var stored model.MeliAccount
	require.NoError(t, db.First(&stored, "organization_id = ?", account.OrganizationID).Error)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.Equal(t, "fresh-refresh", stored.RefreshToken)
}

func TestValidAccessTokenRefreshesExpiredToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-access","refresh_token":"fresh-refresh","expires_in":21600}`))
	})
	svc, db, _ := newTokenFixture(t, handler)
	account := seedAccount(t, db, time.Now().Add(-time.Hour))

	token, err := svc.ValidAccessToken(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
}

func TestValidAccessTokenRefreshFailureIsFatal(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid_grant"}`))
	})
	svc, db, _ := newTokenFixture(t, handler)
	account := seedAccount(t, db, time.Now().Add(time.Minute))

	_, err := svc.ValidAccessToken(context.Background(), account)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to refresh marketplace token")

	// The stored pair is untouched so the operator can reconnect cleanly.
	var stored model.MeliAccount
	require.NoError(t, db.First(&stored, "organization_id = ?", account.OrganizationID).Error)
	assert.Equal(t, "stored-access", stored.AccessToken)
}
