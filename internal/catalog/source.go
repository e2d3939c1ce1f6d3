package catalog

import (
	"context"
	"errors"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// Sentinel errors surfaced by catalog sources
var (
	// ErrUnauthorized maps 401/403 from the backend; the engine only
	// reacts to it, authorization itself is enforced backend-side.
	ErrUnauthorized = errors.New("catalog: unauthorized")
	// ErrNotFound is returned for a missing single entity
	ErrNotFound = errors.New("catalog: not found")
)

// RobotQuery narrows the robot population. Zero fields are no constraint.
type RobotQuery struct {
	FamilyID   string
	IndustryID string
	Filters    *models.TechFilters
}

// FamilyQuery narrows the family list. Technical filters apply to the
// robots belonging to the family.
type FamilyQuery struct {
	IndustryID string
	Filters    *models.TechFilters
}

// Source is the read (plus contact-request write) contract against the
// content backend. Implementations: Client (HTTP) and FixtureSource (YAML).
type Source interface {
	Industries(ctx context.Context, locale string) ([]models.Industry, error)
	Families(ctx context.Context, locale string, q FamilyQuery) ([]models.Family, error)
	Robots(ctx context.Context, locale string, q RobotQuery) ([]models.Robot, error)
	RobotByID(ctx context.Context, locale, documentID string) (*models.Robot, error)
	Controllers(ctx context.Context, locale string) ([]models.Controller, error)
	AccessoryLinks(ctx context.Context, locale, robotDocumentID string) ([]models.AccessoryLink, error)
	Exclusions(ctx context.Context, locale string) ([]models.AccessoryExclusion, error)
	CreateContactRequest(ctx context.Context, req models.ContactRequest) error
}
