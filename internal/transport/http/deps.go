package http

import (
	"context"

	"github.com/geooptima/backend/internal/domain"
	jwtinfra "github.com/geooptima/backend/internal/infrastructure/jwt"
	"github.com/geooptima/backend/internal/infrastructure/sns"
)

// AccountRepository is the minimal interface the router requires from the
// account store.
type AccountRepository interface {
	Get(ctx context.Context, phone string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, phone string, updates map[string]interface{}) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo AccountRepository
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}
