package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

const secretDescription = "Third-party API key for a Skiff use case deployment"

// SecretsManagerAPI is the subset of the Secrets Manager client the secret
// store uses, abstracted for testing.
type SecretsManagerAPI interface {
	CreateSecret(
		ctx context.Context,
		params *secretsmanager.CreateSecretInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(
		ctx context.Context,
		params *secretsmanager.PutSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.PutSecretValueOutput, error)
	DeleteSecret(
		ctx context.Context,
		params *secretsmanager.DeleteSecretInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.DeleteSecretOutput, error)
}

// SecretClient stores provider API keys in Secrets Manager. Values are never
// logged.
type SecretClient struct {
	api SecretsManagerAPI
}

func NewSecretClient(api SecretsManagerAPI) *SecretClient {
	return &SecretClient{api: api}
}

// Create stores a new secret, overwriting any replica left behind by a
// previous deployment of the same use case.
func (c *SecretClient) Create(ctx context.Context, name, value string) error {
	input := &secretsmanager.CreateSecretInput{
		Name:                        aws.String(name),
		Description:                 aws.String(secretDescription),
		SecretString:                aws.String(value),
		ForceOverwriteReplicaSecret: true,
	}

	if _, err := c.api.CreateSecret(ctx, input); err != nil {
		slog.Error("Secret creation failed", "secret_name", name, "error", err)
		return fmt.Errorf("creating secret %s: %w", name, err)
	}

	slog.Info("Secret created", "secret_name", name)
	return nil
}

// Put updates the value of an existing secret.
func (c *SecretClient) Put(ctx context.Context, name, value string) error {
	input := &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	}

	if _, err := c.api.PutSecretValue(ctx, input); err != nil {
		slog.Error("Secret update failed", "secret_name", name, "error", err)
		return fmt.Errorf("updating secret %s: %w", name, err)
	}

	slog.Info("Secret updated", "secret_name", name)
	return nil
}

// Delete removes the secret immediately, with no recovery window. A missing
// secret is not an error: the desired end-state already holds.
func (c *SecretClient) Delete(ctx context.Context, name string) error {
	input := &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	}

	if _, err := c.api.DeleteSecret(ctx, input); err != nil {
		if isSecretMissing(err) {
			slog.Debug("Secret already absent", "secret_name", name)
			return nil
		}
		slog.Error("Secret deletion failed", "secret_name", name, "error", err)
		return fmt.Errorf("deleting secret %s: %w", name, err)
	}

	slog.Info("Secret deleted", "secret_name", name)
	return nil
}

func isSecretMissing(err error) bool {
	var notFound *smtypes.ResourceNotFoundException
	return errors.As(err, &notFound)
}
