// Package app provides the main application context for Skiff, wiring the
// AWS clients and the use case service.
package app

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/skiff-cd/skiff/services"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	useCaseService services.UseCaseManager
	appConfig      *services.Config
)

// InitializeWithConfig initializes the app with a pre-configured Config.
func InitializeWithConfig(ctx context.Context, cfg *services.Config) error {
	appConfig = cfg

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return err
	}

	stacks := services.NewStackClient(cloudformation.NewFromConfig(awsCfg), cfg)
	configs := services.NewParameterConfigStore(ssm.NewFromConfig(awsCfg), cfg)
	secrets := services.NewSecretClient(secretsmanager.NewFromConfig(awsCfg))
	records := services.NewDynamoRecordStore(dynamodb.NewFromConfig(awsCfg), cfg)

	useCaseService = services.NewUseCaseService(stacks, configs, secrets, records)
	return nil
}

func GetUseCaseService() services.UseCaseManager {
	return useCaseService
}

func GetConfig() *services.Config {
	return appConfig
}

// SetUseCaseServiceForTesting allows overriding the use case service for
// testing purposes.
func SetUseCaseServiceForTesting(service services.UseCaseManager) {
	useCaseService = service
}
