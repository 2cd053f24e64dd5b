package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/google/uuid"

	"github.com/skiff-cd/skiff/domain"
)

// SSMAPI is the subset of the SSM client the config store uses, abstracted
// for testing.
type SSMAPI interface {
	PutParameter(
		ctx context.Context,
		params *ssm.PutParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.PutParameterOutput, error)
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)
	DeleteParameter(
		ctx context.Context,
		params *ssm.DeleteParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.DeleteParameterOutput, error)
}

// ParameterConfigStore persists use case configuration blobs as JSON in
// SSM Parameter Store.
type ParameterConfigStore struct {
	api    SSMAPI
	prefix string
}

func NewParameterConfigStore(api SSMAPI, config *Config) *ParameterConfigStore {
	return &ParameterConfigStore{
		api:    api,
		prefix: config.ConfigKeyPrefix,
	}
}

// GenerateKey returns a fresh config store key for the use case. The random
// suffix guarantees every create and update produces a new key, forcing the
// provisioned stack's runtime to observe a fresh value on every deploy.
func (s *ParameterConfigStore) GenerateKey(shortID string) string {
	suffix := uuid.NewString()[:domain.ShortIDLength]
	return s.prefix + "/" + shortID + "/" + suffix
}

// Put writes the configuration blob under key, overwriting any previous value.
func (s *ParameterConfigStore) Put(ctx context.Context, key string, config map[string]any) error {
	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("serializing configuration for %s: %w", key, err)
	}

	input := &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(string(payload)),
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	}

	if _, err := s.api.PutParameter(ctx, input); err != nil {
		slog.Error("Config store write failed", "key", key, "error", err)
		return fmt.Errorf("writing configuration %s: %w", key, err)
	}

	return nil
}

// Get fetches and parses the configuration blob stored under key.
func (s *ParameterConfigStore) Get(ctx context.Context, key string) (map[string]any, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	}

	output, err := s.api.GetParameter(ctx, input)
	if err != nil {
		if isParameterMissing(err) {
			return nil, fmt.Errorf("reading configuration %s: %w", key, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("reading configuration %s: %w", key, err)
	}

	var config map[string]any
	if err := json.Unmarshal([]byte(aws.ToString(output.Parameter.Value)), &config); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", key, err)
	}

	return config, nil
}

// Delete removes the configuration under key. A missing key is not an
// error: the desired end-state already holds.
func (s *ParameterConfigStore) Delete(ctx context.Context, key string) error {
	input := &ssm.DeleteParameterInput{
		Name: aws.String(key),
	}

	if _, err := s.api.DeleteParameter(ctx, input); err != nil {
		if isParameterMissing(err) {
			slog.Debug("Config parameter already absent", "key", key)
			return nil
		}
		slog.Error("Config store delete failed", "key", key, "error", err)
		return fmt.Errorf("deleting configuration %s: %w", key, err)
	}

	return nil
}

func isParameterMissing(err error) bool {
	var notFound *ssmtypes.ParameterNotFound
	return errors.As(err, &notFound)
}
