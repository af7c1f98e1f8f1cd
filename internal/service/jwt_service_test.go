package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"career-advisor/internal/domain"
)

func newTestJWT(secret string) *JWTService {
	return NewJWTServiceWithStore(secret, 15*time.Minute, 30*time.Minute, NewMemoryRefreshTokenStore())
}

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := newTestJWT("secret")
	user := domain.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana"}

	pair, err := svc.GeneratePair(context.Background(), user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "ana@example.com" || claims.DisplayName != "Ana" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RefreshRotation(t *testing.T) {
	svc := newTestJWT("secret")
	pair, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	refreshed, err := svc.RefreshPair(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh pair: %v", err)
	}
	claims, err := svc.ParseAccessToken(refreshed.AccessToken)
	if err != nil || claims.UserID != "u1" {
		t.Fatalf("expected refreshed access token for u1, got %+v, %v", claims, err)
	}

	if _, err := svc.RefreshPair(context.Background(), pair.RefreshToken); err == nil {
		t.Fatalf("expected old refresh token to be revoked")
	}
}

func TestJWTService_ConcurrentRefreshRotatesOnce(t *testing.T) {
	svc := newTestJWT("secret")
	pair, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RefreshPair(context.Background(), pair.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one successful rotation, got %d", wins)
	}
}

func TestJWTService_RevokeRefresh(t *testing.T) {
	svc := newTestJWT("secret")
	pair, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if err := svc.RevokeRefresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("revoke refresh: %v", err)
	}
	if _, err := svc.RefreshPair(context.Background(), pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh to fail after revoke")
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := newTestJWT("")
	if _, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1"}); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
}

func TestJWTService_RejectsAccessTokenInRefreshFlow(t *testing.T) {
	svc := newTestJWT("secret")
	pair, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if _, err := svc.RefreshPair(context.Background(), pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for access token used as refresh, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	svc := newTestJWT("secret")
	now := time.Now().UTC()
	claims := Claims{
		UserID:    "u1",
		Email:     "ana@example.com",
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-issuer",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong issuer, got %v", err)
	}
}

func TestJWTService_ExpiredAccessToken(t *testing.T) {
	svc := newTestJWT("secret")
	svc.now = func() time.Time { return time.Now().UTC().Add(-time.Hour) }
	pair, err := svc.GeneratePair(context.Background(), domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}
