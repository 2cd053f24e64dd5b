package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/skiff-cd/skiff/domain"
)

// UseCaseService sequences the four store clients into the deployment
// workflows. The provisioning call is the linchpin of every mutating
// workflow: if the infrastructure didn't change, no bookkeeping happens and
// the failure is reported as a business-level failed status. Every step
// after it represents a partially applied change, so its failure is returned
// as an error for the caller to retry or alert on.
//
// The service assumes at most one in-flight operation per use case ID,
// enforced by the caller.
type UseCaseService struct {
	stacks  StackProvisioner
	configs ConfigStore
	secrets SecretStore
	records RecordStore
}

func NewUseCaseService(stacks StackProvisioner, configs ConfigStore, secrets SecretStore, records RecordStore) *UseCaseService {
	return &UseCaseService{
		stacks:  stacks,
		configs: configs,
		secrets: secrets,
		records: records,
	}
}

// Create provisions a new use case deployment: stack, record, configuration,
// and (for providers that need one) the API key secret, in that order.
func (s *UseCaseService) Create(ctx context.Context, useCase *domain.UseCase) (domain.OperationStatus, error) {
	configKey := s.configs.GenerateKey(useCase.ShortID())
	useCase.ConfigKey = configKey
	useCase.DeploymentParameters.Set(domain.ConfigParameterKey, configKey)

	stackID, err := s.stacks.Create(ctx, useCase)
	if err != nil {
		slog.Error("Use case creation failed before any state was written",
			"use_case_id", useCase.ID,
			"error", err)
		return domain.StatusFailed, nil
	}
	useCase.StackID = stackID

	if err := s.records.Create(ctx, NewUseCaseRecord(useCase)); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s created but record write failed: %w", stackID, err)
	}

	if err := s.configs.Put(ctx, configKey, useCase.Configuration); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s created but configuration write failed: %w", stackID, err)
	}

	if useCase.RequiresSecret() {
		if err := s.secrets.Create(ctx, useCase.SecretName(), useCase.APIKey); err != nil {
			return domain.StatusFailed, fmt.Errorf("stack %s created but secret write failed: %w", stackID, err)
		}
	}

	slog.Info("Use case created",
		"use_case_id", useCase.ID,
		"stack_id", stackID,
		"config_key", configKey)
	return domain.StatusSuccess, nil
}

// Update redeploys an existing use case with new parameters and
// configuration. A fresh config key is generated so the stack's runtime
// observes a fresh value; the previous key is cleaned up afterwards.
func (s *UseCaseService) Update(ctx context.Context, useCase *domain.UseCase) (domain.OperationStatus, error) {
	record, err := s.records.Get(ctx, useCase.ID.String())
	if err != nil {
		slog.Error("Use case update failed before any state was written",
			"use_case_id", useCase.ID,
			"error", err)
		return domain.StatusFailed, nil
	}
	oldConfigKey := record.SSMParameterKey
	useCase.StackID = record.StackID

	configKey := s.configs.GenerateKey(useCase.ShortID())
	useCase.ConfigKey = configKey
	useCase.DeploymentParameters.Set(domain.ConfigParameterKey, configKey)

	if _, err := s.stacks.Update(ctx, useCase); err != nil {
		slog.Error("Use case update failed before any state was written",
			"use_case_id", useCase.ID,
			"stack_id", useCase.StackID,
			"error", err)
		return domain.StatusFailed, nil
	}

	record.Name = useCase.Name
	record.Description = useCase.Description
	record.SSMParameterKey = configKey
	if err := s.records.Update(ctx, record); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s updated but record write failed: %w", useCase.StackID, err)
	}

	if err := s.configs.Put(ctx, configKey, useCase.Configuration); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s updated but configuration write failed: %w", useCase.StackID, err)
	}
	if err := s.configs.Delete(ctx, oldConfigKey); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s updated but old configuration cleanup failed: %w", useCase.StackID, err)
	}

	if useCase.RequiresSecret() {
		if err := s.secrets.Put(ctx, useCase.SecretName(), useCase.APIKey); err != nil {
			return domain.StatusFailed, fmt.Errorf("stack %s updated but secret write failed: %w", useCase.StackID, err)
		}
	}

	slog.Info("Use case updated",
		"use_case_id", useCase.ID,
		"stack_id", useCase.StackID,
		"config_key", configKey,
		"old_config_key", oldConfigKey)
	return domain.StatusSuccess, nil
}

// Delete tears down the use case's stack and soft-deletes its record via a
// TTL marker. The record remains readable until it expires or a permanent
// delete removes it.
func (s *UseCaseService) Delete(ctx context.Context, useCaseID uuid.UUID) (domain.OperationStatus, error) {
	record, err := s.records.Get(ctx, useCaseID.String())
	if err != nil {
		slog.Error("Use case deletion failed before any state was changed",
			"use_case_id", useCaseID,
			"error", err)
		return domain.StatusFailed, nil
	}

	useCase := useCaseFromRecord(useCaseID, record)
	if err := s.stacks.Delete(ctx, useCase); err != nil {
		slog.Error("Use case deletion failed before any state was changed",
			"use_case_id", useCaseID,
			"stack_id", record.StackID,
			"error", err)
		return domain.StatusFailed, nil
	}

	if err := s.records.MarkForDeletion(ctx, useCaseID.String()); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s deleted but record marking failed: %w", record.StackID, err)
	}

	if domain.RequiresSecret(record.ProviderName) {
		if err := s.secrets.Delete(ctx, useCase.SecretName()); err != nil {
			return domain.StatusFailed, fmt.Errorf("stack %s deleted but secret cleanup failed: %w", record.StackID, err)
		}
	}

	slog.Info("Use case deleted", "use_case_id", useCaseID, "stack_id", record.StackID)
	return domain.StatusSuccess, nil
}

// PermanentlyDelete removes everything a use case left behind: stack,
// record, configuration, and secret. Missing resources are tolerated so the
// operation can be retried until it reports success.
func (s *UseCaseService) PermanentlyDelete(ctx context.Context, useCaseID uuid.UUID) (domain.OperationStatus, error) {
	record, err := s.records.Get(ctx, useCaseID.String())
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			// Nothing is derivable without the record, and nothing needs
			// to be: the use case is already gone.
			slog.Info("Use case record already absent", "use_case_id", useCaseID)
			return domain.StatusSuccess, nil
		}
		return domain.StatusFailed, fmt.Errorf("fetching record for permanent deletion of %s: %w", useCaseID, err)
	}

	useCase := useCaseFromRecord(useCaseID, record)
	if err := s.stacks.Delete(ctx, useCase); err != nil {
		if !errors.Is(err, ErrStackNotFound) {
			return domain.StatusFailed, fmt.Errorf("permanently deleting use case %s: %w", useCaseID, err)
		}
		slog.Info("Stack already absent", "use_case_id", useCaseID, "stack_id", record.StackID)
	}

	if err := s.records.Delete(ctx, useCaseID.String()); err != nil {
		return domain.StatusFailed, fmt.Errorf("stack %s deleted but record removal failed: %w", record.StackID, err)
	}

	if err := s.configs.Delete(ctx, record.SSMParameterKey); err != nil {
		return domain.StatusFailed, fmt.Errorf("permanently deleting use case %s: configuration cleanup failed: %w", useCaseID, err)
	}

	if domain.RequiresSecret(record.ProviderName) {
		if err := s.secrets.Delete(ctx, useCase.SecretName()); err != nil {
			return domain.StatusFailed, fmt.Errorf("permanently deleting use case %s: secret cleanup failed: %w", useCaseID, err)
		}
	}

	slog.Info("Use case permanently deleted", "use_case_id", useCaseID, "stack_id", record.StackID)
	return domain.StatusSuccess, nil
}

// List returns one best-effort page of deployments. A scan failure aborts
// the page; a describe or config failure for an individual record only
// skips that record.
func (s *UseCaseService) List(ctx context.Context, pageToken string) (*domain.DeploymentListing, error) {
	page, err := s.records.Scan(ctx, pageToken)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}

	listing := &domain.DeploymentListing{
		Deployments:   make([]domain.DeploymentDetails, 0, len(page.Records)),
		ScannedCount:  page.ScannedCount,
		NextPageToken: page.NextPageToken,
	}

	for i := range page.Records {
		record := &page.Records[i]
		details, err := s.deploymentDetails(ctx, record)
		if err != nil {
			slog.Warn("Skipping deployment in listing",
				"use_case_id", record.UseCaseID,
				"stack_id", record.StackID,
				"error", err)
			continue
		}
		listing.Deployments = append(listing.Deployments, *details)
	}

	return listing, nil
}

func (s *UseCaseService) deploymentDetails(ctx context.Context, record *UseCaseRecord) (*domain.DeploymentDetails, error) {
	info, err := domain.ParseStackInfo(record.StackID)
	if err != nil {
		return nil, err
	}

	stackDetails, err := s.stacks.Describe(ctx, info)
	if err != nil {
		return nil, err
	}

	config, err := s.configs.Get(ctx, record.SSMParameterKey)
	if err != nil {
		return nil, err
	}

	details := &domain.DeploymentDetails{
		DeploymentSummary:       record.ToSummary(),
		Status:                  stackDetails.Status,
		WebConfigKey:            stackDetails.WebConfigKey,
		ChatConfigParameterName: stackDetails.ChatConfigParameterName,
		WebURL:                  stackDetails.WebURL,
		DefaultUserEmail:        stackDetails.DefaultUserEmail,
		SearchIndexID:           stackDetails.SearchIndexID,
		DashboardURL:            stackDetails.DashboardURL,
		RAGEnabled:              stackDetails.RAGEnabled,
		ProviderAPIKeySecret:    stackDetails.ProviderAPIKeySecret,
		Configuration:           config,
	}
	if stackDetails.UseCaseID != "" {
		details.UseCaseID = stackDetails.UseCaseID
	}
	return details, nil
}

// useCaseFromRecord rebuilds the minimal use case a deletion-path workflow
// needs from its persisted record.
func useCaseFromRecord(id uuid.UUID, record *UseCaseRecord) *domain.UseCase {
	return &domain.UseCase{
		ID:           id,
		Name:         record.Name,
		Description:  record.Description,
		UserID:       record.UserID,
		ProviderName: record.ProviderName,
		UseCaseType:  record.UseCaseType,
		StackID:      record.StackID,
		ConfigKey:    record.SSMParameterKey,
	}
}
