package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/gosimple/slug"

	"github.com/skiff-cd/skiff/domain"
)

// Tags attached to every provisioned stack.
const (
	createdViaTagKey   = "createdVia"
	createdViaTagValue = "deploymentPlatform"
	userIDTagKey       = "userId"
)

const templateFileSuffix = ".template.json"

// CloudFormationAPI is the subset of the CloudFormation client the stack
// provisioner uses, abstracted for testing.
type CloudFormationAPI interface {
	CreateStack(
		ctx context.Context,
		params *cloudformation.CreateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.CreateStackOutput, error)
	UpdateStack(
		ctx context.Context,
		params *cloudformation.UpdateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(
		ctx context.Context,
		params *cloudformation.DeleteStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(
		ctx context.Context,
		params *cloudformation.DescribeStacksInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStacksOutput, error)
}

// StackClient provisions infrastructure stacks through CloudFormation.
// It builds one request per operation, records a success/failure counter,
// and never retries; retry policy belongs to the caller.
type StackClient struct {
	api             CloudFormationAPI
	templateBaseURL string
	roleARN         string
	metrics         *OperationMetrics
}

func NewStackClient(api CloudFormationAPI, config *Config) *StackClient {
	return &StackClient{
		api:             api,
		templateBaseURL: config.TemplateBaseURL,
		roleARN:         config.DeployRoleARN,
		metrics:         NewOperationMetrics(),
	}
}

// Metrics exposes the per-operation success/failure counters.
func (c *StackClient) Metrics() *OperationMetrics {
	return c.metrics
}

// StackName builds the resource-name-safe stack name for a new stack.
func StackName(useCase *domain.UseCase) string {
	return slug.Make(useCase.Name) + "-" + useCase.ShortID()
}

func (c *StackClient) templateURL(useCase *domain.UseCase) string {
	return strings.TrimSuffix(c.templateBaseURL, "/") + "/" + useCase.TemplateName() + templateFileSuffix
}

func (c *StackClient) roleARNOrNil() *string {
	if c.roleARN == "" {
		return nil
	}
	return aws.String(c.roleARN)
}

func stackParameters(useCase *domain.UseCase) []cfntypes.Parameter {
	params := make([]cfntypes.Parameter, 0, len(useCase.DeploymentParameters))
	for _, p := range useCase.DeploymentParameters {
		params = append(params, cfntypes.Parameter{
			ParameterKey:   aws.String(p.Key),
			ParameterValue: aws.String(p.Value),
		})
	}
	return params
}

func stackTags(useCase *domain.UseCase) []cfntypes.Tag {
	return []cfntypes.Tag{
		{Key: aws.String(createdViaTagKey), Value: aws.String(createdViaTagValue)},
		{Key: aws.String(userIDTagKey), Value: aws.String(useCase.UserID)},
	}
}

var stackCapabilities = []cfntypes.Capability{
	cfntypes.CapabilityCapabilityIam,
	cfntypes.CapabilityCapabilityAutoExpand,
	cfntypes.CapabilityCapabilityNamedIam,
}

// Create provisions a new stack and returns its stack ID (ARN).
func (c *StackClient) Create(ctx context.Context, useCase *domain.UseCase) (string, error) {
	input := &cloudformation.CreateStackInput{
		StackName:    aws.String(StackName(useCase)),
		TemplateURL:  aws.String(c.templateURL(useCase)),
		Parameters:   stackParameters(useCase),
		RoleARN:      c.roleARNOrNil(),
		Capabilities: stackCapabilities,
		Tags:         stackTags(useCase),
		OnFailure:    cfntypes.OnFailureDelete,
	}

	output, err := c.api.CreateStack(ctx, input)
	c.metrics.Record("CreateStack", err)
	if err != nil {
		slog.Error("Stack creation failed",
			"use_case_id", useCase.ID,
			"stack_name", aws.ToString(input.StackName),
			"error", err)
		return "", fmt.Errorf("creating stack for use case %s: %w", useCase.ID, err)
	}

	slog.Info("Stack creation started",
		"use_case_id", useCase.ID,
		"stack_id", aws.ToString(output.StackId))
	return aws.ToString(output.StackId), nil
}

// Update applies the use case's current parameters to its existing stack.
func (c *StackClient) Update(ctx context.Context, useCase *domain.UseCase) (string, error) {
	input := &cloudformation.UpdateStackInput{
		StackName:    aws.String(useCase.StackID),
		TemplateURL:  aws.String(c.templateURL(useCase)),
		Parameters:   stackParameters(useCase),
		RoleARN:      c.roleARNOrNil(),
		Capabilities: stackCapabilities,
		Tags:         stackTags(useCase),
	}

	output, err := c.api.UpdateStack(ctx, input)
	c.metrics.Record("UpdateStack", err)
	if err != nil {
		slog.Error("Stack update failed",
			"use_case_id", useCase.ID,
			"stack_id", useCase.StackID,
			"error", err)
		return "", fmt.Errorf("updating stack for use case %s: %w", useCase.ID, err)
	}

	slog.Info("Stack update started",
		"use_case_id", useCase.ID,
		"stack_id", aws.ToString(output.StackId))
	return aws.ToString(output.StackId), nil
}

// Delete tears down the use case's stack. A missing stack surfaces as
// ErrStackNotFound; the caller decides whether that is tolerable.
func (c *StackClient) Delete(ctx context.Context, useCase *domain.UseCase) error {
	input := &cloudformation.DeleteStackInput{
		StackName: aws.String(useCase.StackID),
		RoleARN:   c.roleARNOrNil(),
	}

	_, err := c.api.DeleteStack(ctx, input)
	c.metrics.Record("DeleteStack", err)
	if err != nil {
		if isStackMissing(err) {
			return fmt.Errorf("deleting stack %s: %w", useCase.StackID, ErrStackNotFound)
		}
		slog.Error("Stack deletion failed",
			"use_case_id", useCase.ID,
			"stack_id", useCase.StackID,
			"error", err)
		return fmt.Errorf("deleting stack for use case %s: %w", useCase.ID, err)
	}

	slog.Info("Stack deletion started",
		"use_case_id", useCase.ID,
		"stack_id", useCase.StackID)
	return nil
}

// Describe fetches the current state of a stack. Exactly one stack must
// match the reference; more than one is an internal-consistency failure
// distinct from not-found.
func (c *StackClient) Describe(ctx context.Context, info domain.StackInfo) (*domain.StackDetails, error) {
	input := &cloudformation.DescribeStacksInput{
		StackName: aws.String(info.StackARN),
	}

	output, err := c.api.DescribeStacks(ctx, input)
	c.metrics.Record("DescribeStacks", err)
	if err != nil {
		if isStackMissing(err) {
			return nil, fmt.Errorf("describing stack %s: %w", info.StackName, ErrStackNotFound)
		}
		return nil, fmt.Errorf("describing stack %s: %w", info.StackName, err)
	}

	switch len(output.Stacks) {
	case 0:
		return nil, fmt.Errorf("describing stack %s: %w", info.StackName, ErrStackNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("describing stack %s returned %d stacks: %w",
			info.StackName, len(output.Stacks), ErrAmbiguousStack)
	}

	return stackDetailsFromStack(&output.Stacks[0]), nil
}

func stackDetailsFromStack(stack *cfntypes.Stack) *domain.StackDetails {
	details := &domain.StackDetails{
		Status: string(stack.StackStatus),
	}

	for _, output := range stack.Outputs {
		switch aws.ToString(output.OutputKey) {
		case "WebConfigKey":
			details.WebConfigKey = aws.ToString(output.OutputValue)
		case "CloudFrontWebUrl":
			details.WebURL = aws.ToString(output.OutputValue)
		case "KendraIndexId":
			details.SearchIndexID = aws.ToString(output.OutputValue)
		case "CloudwatchDashboardUrl":
			details.DashboardURL = aws.ToString(output.OutputValue)
		}
	}

	for _, param := range stack.Parameters {
		switch aws.ToString(param.ParameterKey) {
		case "DefaultUserEmail":
			details.DefaultUserEmail = aws.ToString(param.ParameterValue)
		case domain.ConfigParameterKey:
			details.ChatConfigParameterName = aws.ToString(param.ParameterValue)
		case "RAGEnabled":
			details.RAGEnabled = aws.ToString(param.ParameterValue)
		case "ProviderApiKeySecret":
			details.ProviderAPIKeySecret = aws.ToString(param.ParameterValue)
		case "UseCaseUUID":
			details.UseCaseID = aws.ToString(param.ParameterValue)
		}
	}

	return details
}

// CloudFormation reports missing stacks as a ValidationError whose message
// names the stack, not as a typed not-found error.
func isStackMissing(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}
