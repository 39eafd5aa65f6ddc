package service

import (
	"context"
	"testing"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef" // 32 bytes

func authTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       testJWTSecret,
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 14 * 24 * time.Hour,
		},
	}
}

type authFixture struct {
	userRepo   *MockUserRepository
	tokenCache *MockCache
	service    AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		userRepo:   new(MockUserRepository),
		tokenCache: new(MockCache),
	}
	svc, err := NewAuthService(f.userRepo, f.tokenCache, authTestConfig())
	require.NoError(t, err)
	f.service = svc
	return f
}

func TestNewAuthService_Guards(t *testing.T) {
	t.Run("short jwt secret", func(t *testing.T) {
		cfg := authTestConfig()
		cfg.JWT.SecretKey = "too-short"
		_, err := NewAuthService(new(MockUserRepository), new(MockCache), cfg)
		assert.Error(t, err)
	})

	t.Run("missing token cache", func(t *testing.T) {
		_, err := NewAuthService(new(MockUserRepository), nil, authTestConfig())
		assert.Error(t, err)
	})
}

func TestCreateJWT_ValidateJWT_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &domain.User{ID: "user1", Email: "user1@school.test", Role: domain.RoleLearner}

	tokenString, err := f.service.CreateJWT(ctx, user, 15*time.Minute, "access")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := f.service.ValidateJWT(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "learner", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "user1", claims.Subject)
	assert.NotEmpty(t, claims.ID, "each token carries a unique jti")
}

func TestCreateJWT_TokensAreUnique(t *testing.T) {
	// Rotation compares stored hashes, so two tokens minted for the same user
	// within the same second must still differ.
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &domain.User{ID: "user1", Role: domain.RoleLearner}

	first, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
	require.NoError(t, err)
	second, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateJWT_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &domain.User{ID: "user1", Role: domain.RoleLearner}

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.service.ValidateJWT(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidJWTToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		otherCfg := authTestConfig()
		otherCfg.JWT.SecretKey = "ffffffffffffffffffffffffffffffff"
		otherSvc, err := NewAuthService(new(MockUserRepository), new(MockCache), otherCfg)
		require.NoError(t, err)

		token, err := otherSvc.CreateJWT(ctx, user, time.Hour, "access")
		require.NoError(t, err)

		_, err = f.service.ValidateJWT(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidJWTToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := f.service.CreateJWT(ctx, user, -time.Minute, "access")
		require.NoError(t, err)

		_, err = f.service.ValidateJWT(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidJWTToken)
	})
}

func TestRefreshToken_RotatesPair(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &domain.User{ID: "user1", Email: "user1@school.test", Role: domain.RoleLearner}
	key := cache.GenerateCacheKey("auth_service", "refresh_token", "user1")

	oldRefresh, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
	require.NoError(t, err)

	var storedHash string
	f.tokenCache.On("Get", ctx, key).Return(hashToken(oldRefresh), nil).Once()
	f.userRepo.On("GetUserByID", ctx, "user1").Return(user, nil).Once()
	f.tokenCache.On("Set", ctx, key, mock.AnythingOfType("string"), 14*24*time.Hour).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil).Once()

	newAccess, newRefresh, err := f.service.RefreshToken(ctx, oldRefresh)

	require.NoError(t, err)
	assert.NotEqual(t, oldRefresh, newRefresh)
	assert.Equal(t, hashToken(newRefresh), storedHash, "store holds the hash of the new token only")

	accessClaims, err := f.service.ValidateJWT(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, "access", accessClaims.TokenType)
	refreshClaims, err := f.service.ValidateJWT(ctx, newRefresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	f.tokenCache.AssertExpectations(t)
}

func TestRefreshToken_Rejections(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: "user1", Role: domain.RoleLearner}
	key := cache.GenerateCacheKey("auth_service", "refresh_token", "user1")

	t.Run("access token is not accepted", func(t *testing.T) {
		f := newAuthFixture(t)
		accessToken, err := f.service.CreateJWT(ctx, user, time.Hour, "access")
		require.NoError(t, err)

		_, _, err = f.service.RefreshToken(ctx, accessToken)
		assertDomainCode(t, err, domain.CodeUnauthorized)
		f.tokenCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("revoked session", func(t *testing.T) {
		f := newAuthFixture(t)
		refreshToken, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
		require.NoError(t, err)

		f.tokenCache.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()

		_, _, err = f.service.RefreshToken(ctx, refreshToken)
		assertDomainCode(t, err, domain.CodeUnauthorized)
		f.userRepo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})

	t.Run("replayed stale token revokes the live session", func(t *testing.T) {
		f := newAuthFixture(t)
		staleToken, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
		require.NoError(t, err)
		currentToken, err := f.service.CreateJWT(ctx, user, time.Hour, "refresh")
		require.NoError(t, err)

		f.tokenCache.On("Get", ctx, key).Return(hashToken(currentToken), nil).Once()
		f.tokenCache.On("Delete", ctx, key).Return(nil).Once()

		_, _, err = f.service.RefreshToken(ctx, staleToken)
		assertDomainCode(t, err, domain.CodeUnauthorized)
		f.tokenCache.AssertCalled(t, "Delete", ctx, key)
		f.userRepo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	key := cache.GenerateCacheKey("auth_service", "refresh_token", "user1")

	t.Run("deletes the stored hash", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokenCache.On("Delete", ctx, key).Return(nil).Once()

		require.NoError(t, f.service.Logout(ctx, "user1"))
		f.tokenCache.AssertExpectations(t)
	})

	t.Run("logout without a live session succeeds", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokenCache.On("Delete", ctx, key).Return(domain.ErrCacheMiss).Once()

		require.NoError(t, f.service.Logout(ctx, "user1"))
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokenCache.On("Delete", ctx, key).Return(assert.AnError).Once()

		err := f.service.Logout(ctx, "user1")
		assertDomainCode(t, err, domain.CodeInternal)
	})
}

func TestEncryptDecryptToken_RoundTrip(t *testing.T) {
	f := newAuthFixture(t)

	encrypted, err := f.service.EncryptToken("ya29.provider-token")
	require.NoError(t, err)
	require.NotEmpty(t, encrypted)
	assert.NotEqual(t, "ya29.provider-token", encrypted)

	decrypted, err := f.service.DecryptToken(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "ya29.provider-token", decrypted)
}

func TestEncryptToken_EmptyPassesThrough(t *testing.T) {
	f := newAuthFixture(t)

	encrypted, err := f.service.EncryptToken("")
	require.NoError(t, err)
	assert.Empty(t, encrypted)

	decrypted, err := f.service.DecryptToken("")
	require.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestEncryptToken_NonDeterministic(t *testing.T) {
	f := newAuthFixture(t)

	first, err := f.service.EncryptToken("same-input")
	require.NoError(t, err)
	second, err := f.service.EncryptToken("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "a fresh nonce must be used per encryption")
}

func TestDecryptToken_RejectsTamperedCiphertext(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.DecryptToken("bm90LXJlYWwtY2lwaGVydGV4dA==")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestGetGoogleLoginURL(t *testing.T) {
	f := newAuthFixture(t)

	url := f.service.GetGoogleLoginURL("state-token")

	assert.Contains(t, url, "state=state-token")
	assert.Contains(t, url, "access_type=offline")
}

func TestHandleGoogleCallback_RejectsBadState(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, _, _, err := f.service.HandleGoogleCallback(ctx, "code", "evil-state", "expected-state")
	assert.ErrorIs(t, err, ErrInvalidAuthState)

	_, _, _, err = f.service.HandleGoogleCallback(ctx, "code", "", "expected-state")
	assert.ErrorIs(t, err, ErrInvalidAuthState)
}
