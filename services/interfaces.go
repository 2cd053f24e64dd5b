package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/skiff-cd/skiff/domain"
)

// StackProvisioner defines the contract for infrastructure stack operations.
// Delete surfaces ErrStackNotFound so callers on permanent-delete paths can
// treat it as success.
type StackProvisioner interface {
	Create(ctx context.Context, useCase *domain.UseCase) (string, error)
	Update(ctx context.Context, useCase *domain.UseCase) (string, error)
	Delete(ctx context.Context, useCase *domain.UseCase) error
	Describe(ctx context.Context, info domain.StackInfo) (*domain.StackDetails, error)
}

// ConfigStore defines the contract for the structured configuration store.
// Delete tolerates a missing key.
type ConfigStore interface {
	GenerateKey(shortID string) string
	Put(ctx context.Context, key string, config map[string]any) error
	Get(ctx context.Context, key string) (map[string]any, error)
	Delete(ctx context.Context, key string) error
}

// SecretStore defines the contract for third-party credential storage.
// Delete tolerates a missing secret.
type SecretStore interface {
	Create(ctx context.Context, name, value string) error
	Put(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// RecordStore defines the contract for use case metadata records.
type RecordStore interface {
	Create(ctx context.Context, record *UseCaseRecord) error
	Get(ctx context.Context, useCaseID string) (*UseCaseRecord, error)
	Update(ctx context.Context, record *UseCaseRecord) error
	MarkForDeletion(ctx context.Context, useCaseID string) error
	Delete(ctx context.Context, useCaseID string) error
	Scan(ctx context.Context, pageToken string) (*RecordPage, error)
}

// UseCaseManager defines the contract for deployment workflow operations.
type UseCaseManager interface {
	Create(ctx context.Context, useCase *domain.UseCase) (domain.OperationStatus, error)
	Update(ctx context.Context, useCase *domain.UseCase) (domain.OperationStatus, error)
	Delete(ctx context.Context, useCaseID uuid.UUID) (domain.OperationStatus, error)
	PermanentlyDelete(ctx context.Context, useCaseID uuid.UUID) (domain.OperationStatus, error)
	List(ctx context.Context, pageToken string) (*domain.DeploymentListing, error)
}
