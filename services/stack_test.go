package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-cd/skiff/domain"
)

type mockCloudFormationAPI struct {
	CreateStackFunc    func(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStackFunc    func(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStackFunc    func(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacksFunc func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

func (m *mockCloudFormationAPI) CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	if m.CreateStackFunc != nil {
		return m.CreateStackFunc(ctx, params, optFns...)
	}
	return &cloudformation.CreateStackOutput{StackId: aws.String(testStackARN)}, nil
}

func (m *mockCloudFormationAPI) UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	if m.UpdateStackFunc != nil {
		return m.UpdateStackFunc(ctx, params, optFns...)
	}
	return &cloudformation.UpdateStackOutput{StackId: params.StackName}, nil
}

func (m *mockCloudFormationAPI) DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	if m.DeleteStackFunc != nil {
		return m.DeleteStackFunc(ctx, params, optFns...)
	}
	return &cloudformation.DeleteStackOutput{}, nil
}

func (m *mockCloudFormationAPI) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if m.DescribeStacksFunc != nil {
		return m.DescribeStacksFunc(ctx, params, optFns...)
	}
	return &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{StackStatus: cfntypes.StackStatusCreateComplete}},
	}, nil
}

func stackMissingError() error {
	return &smithy.GenericAPIError{
		Code:    "ValidationError",
		Message: "Stack with id assistant-11111111 does not exist",
	}
}

func setupStackClient(api CloudFormationAPI) *StackClient {
	return NewStackClient(api, &Config{
		TemplateBaseURL: "https://templates.example.com/latest/",
		DeployRoleARN:   "arn:aws:iam::123456789012:role/skiff-deploy",
	})
}

func TestStackName(t *testing.T) {
	useCase := testUseCase("Bedrock")
	useCase.Name = "My Team Assistant"
	assert.Equal(t, "my-team-assistant-11111111", StackName(useCase))
}

func TestStackClient_Create(t *testing.T) {
	var input *cloudformation.CreateStackInput
	api := &mockCloudFormationAPI{
		CreateStackFunc: func(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
			input = params
			return &cloudformation.CreateStackOutput{StackId: aws.String(testStackARN)}, nil
		},
	}
	client := setupStackClient(api)

	useCase := testUseCase("Bedrock")
	useCase.DeploymentParameters.Set(domain.ConfigParameterKey, "/skiff/11111111/abc")

	stackID, err := client.Create(context.Background(), useCase)

	require.NoError(t, err)
	assert.Equal(t, testStackARN, stackID)

	require.NotNil(t, input)
	assert.Equal(t, "assistant-11111111", aws.ToString(input.StackName))
	assert.Equal(t, "https://templates.example.com/latest/BedrockChat.template.json", aws.ToString(input.TemplateURL))
	assert.Equal(t, "arn:aws:iam::123456789012:role/skiff-deploy", aws.ToString(input.RoleARN))
	assert.Equal(t, cfntypes.OnFailureDelete, input.OnFailure)
	assert.ElementsMatch(t, []cfntypes.Capability{
		cfntypes.CapabilityCapabilityIam,
		cfntypes.CapabilityCapabilityAutoExpand,
		cfntypes.CapabilityCapabilityNamedIam,
	}, input.Capabilities)

	// Platform tags identify who deployed the stack and through what.
	require.Len(t, input.Tags, 2)
	assert.Equal(t, "createdVia", aws.ToString(input.Tags[0].Key))
	assert.Equal(t, "deploymentPlatform", aws.ToString(input.Tags[0].Value))
	assert.Equal(t, "userId", aws.ToString(input.Tags[1].Key))
	assert.Equal(t, "user-1", aws.ToString(input.Tags[1].Value))

	// Parameters keep their insertion order.
	require.Len(t, input.Parameters, 2)
	assert.Equal(t, "DefaultUserEmail", aws.ToString(input.Parameters[0].ParameterKey))
	assert.Equal(t, domain.ConfigParameterKey, aws.ToString(input.Parameters[1].ParameterKey))
	assert.Equal(t, "/skiff/11111111/abc", aws.ToString(input.Parameters[1].ParameterValue))

	assert.Equal(t, int64(1), client.Metrics().Success("CreateStack"))
	assert.Equal(t, int64(0), client.Metrics().Failure("CreateStack"))
}

func TestStackClient_Create_NoRoleConfigured(t *testing.T) {
	var input *cloudformation.CreateStackInput
	api := &mockCloudFormationAPI{
		CreateStackFunc: func(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
			input = params
			return &cloudformation.CreateStackOutput{StackId: aws.String(testStackARN)}, nil
		},
	}
	client := NewStackClient(api, &Config{TemplateBaseURL: "https://templates.example.com/latest"})

	_, err := client.Create(context.Background(), testUseCase("Bedrock"))

	require.NoError(t, err)
	assert.Nil(t, input.RoleARN)
}

func TestStackClient_Create_Fails(t *testing.T) {
	api := &mockCloudFormationAPI{
		CreateStackFunc: func(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
			return nil, fmt.Errorf("rate exceeded")
		},
	}
	client := setupStackClient(api)

	_, err := client.Create(context.Background(), testUseCase("Bedrock"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate exceeded")
	assert.Equal(t, int64(1), client.Metrics().Failure("CreateStack"))
}

func TestStackClient_Update(t *testing.T) {
	var input *cloudformation.UpdateStackInput
	api := &mockCloudFormationAPI{
		UpdateStackFunc: func(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
			input = params
			return &cloudformation.UpdateStackOutput{StackId: params.StackName}, nil
		},
	}
	client := setupStackClient(api)

	useCase := testUseCase("Bedrock")
	useCase.StackID = testStackARN

	stackID, err := client.Update(context.Background(), useCase)

	require.NoError(t, err)
	assert.Equal(t, testStackARN, stackID)

	// Updates address the existing stack by its ID, not by a derived name.
	assert.Equal(t, testStackARN, aws.ToString(input.StackName))
	assert.Equal(t, "https://templates.example.com/latest/BedrockChat.template.json", aws.ToString(input.TemplateURL))
	assert.Len(t, input.Capabilities, 3)
}

func TestStackClient_Delete(t *testing.T) {
	var input *cloudformation.DeleteStackInput
	api := &mockCloudFormationAPI{
		DeleteStackFunc: func(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
			input = params
			return &cloudformation.DeleteStackOutput{}, nil
		},
	}
	client := setupStackClient(api)

	useCase := testUseCase("Bedrock")
	useCase.StackID = testStackARN

	err := client.Delete(context.Background(), useCase)

	require.NoError(t, err)
	assert.Equal(t, testStackARN, aws.ToString(input.StackName))
	assert.Equal(t, int64(1), client.Metrics().Success("DeleteStack"))
}

func TestStackClient_Delete_StackMissing(t *testing.T) {
	api := &mockCloudFormationAPI{
		DeleteStackFunc: func(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
			return nil, stackMissingError()
		},
	}
	client := setupStackClient(api)

	useCase := testUseCase("Bedrock")
	useCase.StackID = testStackARN

	err := client.Delete(context.Background(), useCase)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStackNotFound)
}

func TestStackClient_Describe(t *testing.T) {
	api := &mockCloudFormationAPI{
		DescribeStacksFunc: func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
			assert.Equal(t, testStackARN, aws.ToString(params.StackName))
			return &cloudformation.DescribeStacksOutput{
				Stacks: []cfntypes.Stack{{
					StackStatus: cfntypes.StackStatusUpdateComplete,
					Outputs: []cfntypes.Output{
						{OutputKey: aws.String("WebConfigKey"), OutputValue: aws.String("/web/config")},
						{OutputKey: aws.String("CloudFrontWebUrl"), OutputValue: aws.String("https://dxxxx.cloudfront.net")},
						{OutputKey: aws.String("KendraIndexId"), OutputValue: aws.String("kendra-123")},
						{OutputKey: aws.String("CloudwatchDashboardUrl"), OutputValue: aws.String("https://console/dashboard")},
						{OutputKey: aws.String("SomethingElse"), OutputValue: aws.String("ignored")},
					},
					Parameters: []cfntypes.Parameter{
						{ParameterKey: aws.String("DefaultUserEmail"), ParameterValue: aws.String("someone@example.com")},
						{ParameterKey: aws.String(domain.ConfigParameterKey), ParameterValue: aws.String("/skiff/11111111/abc")},
						{ParameterKey: aws.String("RAGEnabled"), ParameterValue: aws.String("true")},
						{ParameterKey: aws.String("ProviderApiKeySecret"), ParameterValue: aws.String("11111111/api-key")},
						{ParameterKey: aws.String("UseCaseUUID"), ParameterValue: aws.String("11111111-2222-3333-4444-555555555555")},
					},
				}},
			}, nil
		},
	}
	client := setupStackClient(api)

	info, err := domain.ParseStackInfo(testStackARN)
	require.NoError(t, err)

	details, err := client.Describe(context.Background(), info)

	require.NoError(t, err)
	assert.Equal(t, "UPDATE_COMPLETE", details.Status)
	assert.Equal(t, "/web/config", details.WebConfigKey)
	assert.Equal(t, "https://dxxxx.cloudfront.net", details.WebURL)
	assert.Equal(t, "kendra-123", details.SearchIndexID)
	assert.Equal(t, "https://console/dashboard", details.DashboardURL)
	assert.Equal(t, "someone@example.com", details.DefaultUserEmail)
	assert.Equal(t, "/skiff/11111111/abc", details.ChatConfigParameterName)
	assert.Equal(t, "true", details.RAGEnabled)
	assert.Equal(t, "11111111/api-key", details.ProviderAPIKeySecret)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", details.UseCaseID)
}

func TestStackClient_Describe_NotFound(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	}{
		{
			name: "validation error",
			fn: func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
				return nil, stackMissingError()
			},
		},
		{
			name: "empty result",
			fn: func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
				return &cloudformation.DescribeStacksOutput{}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupStackClient(&mockCloudFormationAPI{DescribeStacksFunc: tt.fn})

			info, err := domain.ParseStackInfo(testStackARN)
			require.NoError(t, err)

			_, err = client.Describe(context.Background(), info)
			assert.ErrorIs(t, err, ErrStackNotFound)
		})
	}
}

func TestStackClient_Describe_Ambiguous(t *testing.T) {
	api := &mockCloudFormationAPI{
		DescribeStacksFunc: func(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
			return &cloudformation.DescribeStacksOutput{
				Stacks: []cfntypes.Stack{
					{StackStatus: cfntypes.StackStatusCreateComplete},
					{StackStatus: cfntypes.StackStatusCreateComplete},
				},
			}, nil
		},
	}
	client := setupStackClient(api)

	info, err := domain.ParseStackInfo(testStackARN)
	require.NoError(t, err)

	_, err = client.Describe(context.Background(), info)
	assert.ErrorIs(t, err, ErrAmbiguousStack)
}

func TestIsStackMissing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "missing stack validation error",
			err:  stackMissingError(),
			want: true,
		},
		{
			name: "other validation error",
			err:  &smithy.GenericAPIError{Code: "ValidationError", Message: "malformed template"},
			want: false,
		},
		{
			name: "other api error",
			err:  &smithy.GenericAPIError{Code: "Throttling", Message: "rate exceeded"},
			want: false,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("does not exist"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStackMissing(tt.err))
		})
	}
}
