package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
	"github.com/yourusername/nurseprep-api/pkg/auth"
)

func googleTestConfig() config.GoogleOAuthConfig {
	return config.GoogleOAuthConfig{
		ClientID:       "web-client-id",
		ClientSecret:   "secret",
		RedirectURI:    "http://localhost:3000/auth/callback",
		ExtraAudiences: []string{"mobile-client-id"},
	}
}

func newTestAuthService(t *testing.T, tokenInfo map[string]string) (*AuthService, *MockUserRepository) {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]string{"id_token": "fake-id-token"})
	}))
	t.Cleanup(tokenSrv.Close)

	infoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fake-id-token", r.URL.Query().Get("id_token"))
		json.NewEncoder(w).Encode(tokenInfo)
	}))
	t.Cleanup(infoSrv.Close)

	userRepo := new(MockUserRepository)
	jwtService, err := auth.NewJWTService("test-secret", 1)
	require.NoError(t, err)

	svc := NewAuthService(NewUserService(userRepo, 7), jwtService, googleTestConfig())
	svc.tokenURL = tokenSrv.URL
	svc.tokenInfoURL = infoSrv.URL
	return svc, userRepo
}

func validTokenInfo() map[string]string {
	return map[string]string{
		"sub":            "google-sub-1",
		"aud":            "web-client-id",
		"iss":            "https://accounts.google.com",
		"email":          "nurse@example.com",
		"email_verified": "true",
		"name":           "Nurse Example",
	}
}

func TestAuthService_SignInWithGoogle_Success(t *testing.T) {
	// Arrange
	svc, userRepo := newTestAuthService(t, validTokenInfo())
	userRepo.On("GetByGoogleSub", "google-sub-1").Return(&entity.User{
		ID:        3,
		GoogleSub: "google-sub-1",
		Email:     "nurse@example.com",
	}, nil)

	// Act
	result, err := svc.SignInWithGoogle(context.Background(), "auth-code")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(3), result.User.ID)
	assert.NotEmpty(t, result.Token, "Должен быть выдан собственный JWT")
}

func TestAuthService_SignInWithGoogle_LazyProfileCreation(t *testing.T) {
	// Arrange: первый вход — профиль создается лениво
	svc, userRepo := newTestAuthService(t, validTokenInfo())
	userRepo.On("GetByGoogleSub", "google-sub-1").Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)

	// Act
	result, err := svc.SignInWithGoogle(context.Background(), "auth-code")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "nurse@example.com", result.User.Email)
	assert.Equal(t, entity.SubscriptionTrial, result.User.SubscriptionStatus)
	userRepo.AssertExpectations(t)
}

func TestAuthService_SignInWithGoogle_EmptyCode(t *testing.T) {
	svc, _ := newTestAuthService(t, validTokenInfo())

	_, err := svc.SignInWithGoogle(context.Background(), " ")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_SignInWithGoogleIDToken_ExtraAudience(t *testing.T) {
	// Arrange: audience мобильного клиента из extra_audiences принимается
	info := validTokenInfo()
	info["aud"] = "mobile-client-id"
	svc, userRepo := newTestAuthService(t, info)
	userRepo.On("GetByGoogleSub", "google-sub-1").Return(&entity.User{ID: 3}, nil)

	// Act
	_, err := svc.SignInWithGoogleIDToken(context.Background(), "fake-id-token")

	// Assert
	assert.NoError(t, err)
}

func TestAuthService_SignInWithGoogleIDToken_Rejections(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(info map[string]string)
	}{
		{"неизвестный audience", func(info map[string]string) { info["aud"] = "attacker-client" }},
		{"неизвестный издатель", func(info map[string]string) { info["iss"] = "evil.example.com" }},
		{"неподтвержденный email", func(info map[string]string) { info["email_verified"] = "false" }},
		{"пустой sub", func(info map[string]string) { info["sub"] = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := validTokenInfo()
			tc.mutate(info)
			svc, userRepo := newTestAuthService(t, info)

			_, err := svc.SignInWithGoogleIDToken(context.Background(), "fake-id-token")

			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
			userRepo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}
