package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanduq-pay/sanduq_pay/internal/config"
	"github.com/sanduq-pay/sanduq_pay/internal/identity"
	"github.com/sanduq-pay/sanduq_pay/internal/logging"
)

// ErrInvalidToken indicates the token failed verification or was revoked.
var ErrInvalidToken = errors.New("invalid token")

const revokedPrefix = "auth:revoked:v1:"

// Claims carries the JWT payload for an access token.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Service issues and verifies access tokens. Revocation is a process-wide
// Redis set keyed by token id with a TTL matching the remaining token life.
type Service struct {
	cfg    config.Config
	cache  *redis.Client
	logger *slog.Logger
}

// NewService builds an auth service instance.
func NewService(cfg config.Config, cache *redis.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{cfg: cfg, cache: cache, logger: logger}
}

// Token is the issued access token together with its lifetime in seconds.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue signs an access token for the user.
func (s *Service) Issue(user identity.User) (Token, error) {
	now := time.Now()
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

// Verify parses the token, checks the signature and the revocation set.
func (s *Service) Verify(ctx context.Context, tokenStr string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	if s.cache != nil && claims.ID != "" {
		revoked, err := s.cache.Exists(ctx, revokedPrefix+claims.ID).Result()
		switch {
		case err != nil:
			// Fail open, but leave a trace: a Redis outage means logout
			// stops being enforced.
			s.logger.Warn("token revocation lookup failed, accepting token", "jti", claims.ID, "error", err)
		case revoked > 0:
			return Claims{}, ErrInvalidToken
		}
	}
	return claims, nil
}

// Revoke invalidates the token until its natural expiry.
func (s *Service) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := s.Verify(ctx, tokenStr)
	if err != nil {
		return err
	}
	if s.cache == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedPrefix+claims.ID, "1", ttl).Err()
}
