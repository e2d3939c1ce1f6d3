package storage

import (
	"context"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// Repository defines the interface for session persistence
type Repository interface {
	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	GetExpiredSessions(ctx context.Context) ([]*models.Session, error)
	// BumpRangeGen atomically increments the session's range generation
	// counter and returns the new value
	BumpRangeGen(ctx context.Context, id string) (int, error)

	// API Clients
	GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
