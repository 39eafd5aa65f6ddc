package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
	ErrEncryptionFailed      = errors.New("failed to encrypt token")
	ErrDecryptionFailed      = errors.New("failed to decrypt token")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	GetGoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (accessToken string, refreshToken string, user *domain.User, err error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error)

	// RefreshToken rotates the token pair. Only the most recently issued
	// refresh token is valid: its hash is held in the cache and replaced on
	// every rotation, so a replayed older token is rejected.
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, newRefreshToken string, err error)

	// Logout revokes the user's refresh token server-side.
	Logout(ctx context.Context, userID string) error

	EncryptToken(token string) (string, error)
	DecryptToken(encryptedToken string) (string, error)
}

type authServiceImpl struct {
	userRepo      domain.UserRepository
	tokenCache    domain.Cache
	oauth2Config  *oauth2.Config
	appConfig     *config.Config
	encryptionKey []byte // 32 bytes for AES-256
}

// NewAuthService creates a new instance of AuthService. The JWT secret doubles
// as the AES key source and must therefore be at least 32 bytes long.
func NewAuthService(userRepo domain.UserRepository, tokenCache domain.Cache, appConfig *config.Config) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}
	if tokenCache == nil {
		return nil, errors.New("token cache is required")
	}

	return &authServiceImpl{
		userRepo:   userRepo,
		tokenCache: tokenCache,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.GoogleOAuth.ClientID,
			ClientSecret: appConfig.GoogleOAuth.ClientSecret,
			RedirectURL:  appConfig.GoogleOAuth.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		appConfig:     appConfig,
		encryptionKey: []byte(appConfig.JWT.SecretKey[:32]),
	}, nil
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	// AccessTypeOffline plus ApprovalForce so Google hands back a refresh token.
	return s.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (string, string, *domain.User, error) {
	appLogger := logger.Get()
	if receivedState == "" || receivedState != expectedState {
		return "", "", nil, ErrInvalidAuthState
	}

	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err)
	}

	client := s.oauth2Config.Client(ctx, googleToken)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	var userInfo dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", "", nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if userInfo.ID == "" || userInfo.Email == "" {
		return "", "", nil, errors.New("google user info is incomplete")
	}

	user, err := s.userRepo.GetUserByGoogleID(ctx, userInfo.ID)
	if err != nil {
		return "", "", nil, fmt.Errorf("error fetching user by google_id: %w", err)
	}

	now := time.Now()
	if user == nil {
		user = domain.NewUser(userInfo.ID, userInfo.Email)
		user.ID = util.NewULID()
		user.Name = userInfo.Name
		user.ProfilePictureURL = userInfo.Picture
		if err := s.userRepo.CreateUser(ctx, user); err != nil {
			return "", "", nil, fmt.Errorf("failed to create user: %w", err)
		}
		appLogger.Info("New user created via Google OAuth",
			zap.String("userID", user.ID), zap.String("email", user.Email))
	} else {
		// Google is the source of truth for email and profile info.
		user.Email = userInfo.Email
		user.Name = userInfo.Name
		user.ProfilePictureURL = userInfo.Picture
		user.UpdatedAt = now
		if err := s.userRepo.UpdateUser(ctx, user); err != nil {
			return "", "", nil, fmt.Errorf("failed to update user: %w", err)
		}
		appLogger.Info("User logged in via Google OAuth",
			zap.String("userID", user.ID), zap.String("email", user.Email))
	}

	if err := s.storeGoogleTokens(ctx, user.ID, googleToken); err != nil {
		return "", "", nil, err
	}

	accessToken, err := s.CreateJWT(ctx, user, s.appConfig.JWT.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.CreateJWT(ctx, user, s.appConfig.JWT.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	if err := s.storeRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, user, nil
}

// storeGoogleTokens encrypts and persists the provider tokens so server-side
// Google API calls stay possible after the session token expires.
func (s *authServiceImpl) storeGoogleTokens(ctx context.Context, userID string, googleToken *oauth2.Token) error {
	encryptedAccessToken, err := s.EncryptToken(googleToken.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encryptedRefreshToken, err := s.EncryptToken(googleToken.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	if err := s.userRepo.UpdateUserTokens(ctx, userID, encryptedAccessToken, encryptedRefreshToken, googleToken.Expiry); err != nil {
		return fmt.Errorf("failed to store provider tokens: %w", err)
	}
	return nil
}

func (s *authServiceImpl) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:    user.ID,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
			ID:        util.NewULID(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.appConfig.JWT.SecretKey))
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	appLogger := logger.Get()
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.appConfig.JWT.SecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appLogger.Warn("JWT token expired", zap.Error(err))
		} else {
			appLogger.Warn("JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*dto.AuthClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}

func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	appLogger := logger.Get()
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return "", "", domain.NewUnauthorizedError("invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", "", domain.NewUnauthorizedError("not a refresh token")
	}

	storedHash, err := s.tokenCache.Get(ctx, s.refreshTokenKey(claims.UserID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return "", "", domain.NewUnauthorizedError("refresh token has been revoked")
		}
		return "", "", domain.NewInternalError("Failed to read refresh token store", err)
	}
	if storedHash != hashToken(refreshTokenString) {
		// A hash mismatch means this token was already rotated out. Revoke the
		// live one too: the stale token may be in an attacker's hands.
		appLogger.Warn("Stale refresh token replayed, revoking session",
			zap.String("userID", claims.UserID))
		if err := s.tokenCache.Delete(ctx, s.refreshTokenKey(claims.UserID)); err != nil {
			appLogger.Error("Failed to revoke refresh token", zap.String("userID", claims.UserID), zap.Error(err))
		}
		return "", "", domain.NewUnauthorizedError("refresh token has been superseded")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", "", domain.NewInternalError("Failed to get user", err)
	}
	if user == nil {
		return "", "", domain.NewNotFoundError(fmt.Sprintf("User %s not found for refresh token", claims.UserID))
	}

	newAccessToken, err := s.CreateJWT(ctx, user, s.appConfig.JWT.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}
	newRefreshToken, err := s.CreateJWT(ctx, user, s.appConfig.JWT.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}
	if err := s.storeRefreshToken(ctx, user.ID, newRefreshToken); err != nil {
		return "", "", err
	}

	appLogger.Info("JWT token pair rotated", zap.String("userID", user.ID))
	return newAccessToken, newRefreshToken, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, userID string) error {
	if err := s.tokenCache.Delete(ctx, s.refreshTokenKey(userID)); err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return domain.NewInternalError("Failed to revoke refresh token", err)
	}
	logger.Get().Info("User logged out", zap.String("userID", userID))
	return nil
}

func (s *authServiceImpl) refreshTokenKey(userID string) string {
	return cache.GenerateCacheKey("auth_service", "refresh_token", userID)
}

func (s *authServiceImpl) storeRefreshToken(ctx context.Context, userID, refreshToken string) error {
	key := s.refreshTokenKey(userID)
	if err := s.tokenCache.Set(ctx, key, hashToken(refreshToken), s.appConfig.JWT.RefreshTokenTTL); err != nil {
		return domain.NewInternalError("Failed to store refresh token", err)
	}
	return nil
}

// hashToken stores only a digest of the refresh token so the cache never holds
// usable token material.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EncryptToken encrypts a token using AES-GCM. Empty input passes through so
// callers need not special-case absent provider tokens.
func (s *authServiceImpl) EncryptToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptToken decrypts a token using AES-GCM.
func (s *authServiceImpl) DecryptToken(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(encryptedToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}
