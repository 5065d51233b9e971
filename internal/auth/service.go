package auth

import (
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/config"
)

type Permission string

const (
	PermRead   Permission = "read"
	PermIngest Permission = "ingest"
	PermAdmin  Permission = "admin"
)

const (
	RoleReader  = "reader"
	RoleAdapter = "adapter"
	RoleAdmin   = "admin"
)

// AuthService guards the ingest and read endpoints. When disabled every
// request is granted all permissions.
type AuthService struct {
	jwtHandler *JWTHandler
	enabled    bool
	logger     *zap.Logger
}

func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.Enabled && !cfg.IsProductionReady() {
		logger.Warn("JWT secret is not production ready",
			zap.String("env", cfg.JWTSecretEnv))
	}

	return &AuthService{
		jwtHandler: NewJWTHandler(cfg.GetJWTSecret(), cfg.Issuer, cfg.AccessTokenTTL),
		enabled:    cfg.Enabled,
		logger:     logger,
	}
}

func (a *AuthService) Enabled() bool {
	return a.enabled
}

// IssueToken creates a token for subject carrying role.
func (a *AuthService) IssueToken(subject, role string) (string, error) {
	return a.jwtHandler.GenerateAccessToken(subject, role)
}

// ValidateToken returns the permissions granted by token.
func (a *AuthService) ValidateToken(token string) (string, []Permission, error) {
	claims, err := a.jwtHandler.ValidateAccessToken(token)
	if err != nil {
		return "", nil, err
	}
	return claims.Subject, roleToPermissions(claims.Role), nil
}

func roleToPermissions(role string) []Permission {
	switch role {
	case RoleAdmin:
		return []Permission{PermRead, PermIngest, PermAdmin}
	case RoleAdapter:
		return []Permission{PermRead, PermIngest}
	case RoleReader:
		return []Permission{PermRead}
	default:
		return []Permission{}
	}
}
