package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
	"github.com/yourusername/nurseprep-api/pkg/auth"
)

const (
	defaultGoogleTokenURL     = "https://oauth2.googleapis.com/token"
	defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// AuthService обрабатывает вход через Google OAuth: обменивает код
// авторизации на id_token, проверяет его и выдает собственный JWT.
// Профиль создается лениво при первом входе.
type AuthService struct {
	users      *UserService
	jwtService *auth.JWTService
	cfg        config.GoogleOAuthConfig

	httpClient *http.Client
	// Переопределяются в тестах
	tokenURL     string
	tokenInfoURL string
}

// SignInResult — результат успешного входа
type SignInResult struct {
	User  *entity.User
	Token string
}

// NewAuthService создает сервис аутентификации
func NewAuthService(users *UserService, jwtService *auth.JWTService, cfg config.GoogleOAuthConfig) *AuthService {
	return &AuthService{
		users:        users,
		jwtService:   jwtService,
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenURL:     defaultGoogleTokenURL,
		tokenInfoURL: defaultGoogleTokenInfoURL,
	}
}

// SignInWithGoogle обменивает код авторизации на id_token, проверяет его
// и возвращает профиль с токеном доступа
func (s *AuthService) SignInWithGoogle(ctx context.Context, code string) (*SignInResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code is required", apperrors.ErrValidation)
	}

	idToken, err := s.exchangeCode(ctx, code)
	if err != nil {
		log.Printf("[AuthService] Ошибка обмена кода авторизации: %v", err)
		return nil, apperrors.ErrUnauthorized
	}

	return s.SignInWithGoogleIDToken(ctx, idToken)
}

// SignInWithGoogleIDToken проверяет уже полученный id_token (мобильные
// клиенты присылают его напрямую, минуя обмен кода)
func (s *AuthService) SignInWithGoogleIDToken(ctx context.Context, idToken string) (*SignInResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: id_token is required", apperrors.ErrValidation)
	}

	info, err := s.verifyIDToken(ctx, idToken)
	if err != nil {
		log.Printf("[AuthService] Ошибка проверки id_token: %v", err)
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetOrCreateByGoogle(info.Sub, info.Email, info.Name)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Пользователь %s вошел через Google", user.Email)
	return &SignInResult{User: user, Token: token}, nil
}

// exchangeCode обменивает код авторизации на id_token через токен-эндпоинт Google
func (s *AuthService) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"redirect_uri":  {s.cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(errText))
	}

	var tokenResp struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.IDToken == "" {
		return "", fmt.Errorf("token response contains no id_token")
	}
	return tokenResp.IDToken, nil
}

type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

// verifyIDToken проверяет id_token через tokeninfo-эндпоинт Google:
// подпись валидирует сам Google, нам остается проверить audience,
// издателя и подтвержденность email
func (s *AuthService) verifyIDToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo endpoint returned status %d", resp.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if !s.isAllowedAudience(info.Aud) {
		return nil, fmt.Errorf("unexpected audience %q", info.Aud)
	}
	if info.Iss != "accounts.google.com" && info.Iss != "https://accounts.google.com" {
		return nil, fmt.Errorf("unexpected issuer %q", info.Iss)
	}
	if info.EmailVerified != "true" {
		return nil, fmt.Errorf("email %q is not verified", info.Email)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("tokeninfo response is missing sub or email")
	}
	return &info, nil
}

func (s *AuthService) isAllowedAudience(aud string) bool {
	if aud == s.cfg.ClientID {
		return true
	}
	for _, extra := range s.cfg.ExtraAudiences {
		if aud == extra {
			return true
		}
	}
	return false
}
