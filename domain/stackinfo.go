package domain

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// StackInfo is the read-only addressing view of a provisioned stack, derived
// from its ARN. All fields besides StackARN are parsed, never stored.
type StackInfo struct {
	StackARN  string
	StackName string
	StackID   string
	AccountID string
	Region    string
}

// ParseStackInfo derives StackInfo from a stack ARN. The ARN must be
// syntactically valid; the resource part of a stack ARN is
// "stack/{name}/{id}".
func ParseStackInfo(stackARN string) (StackInfo, error) {
	parsed, err := arn.Parse(stackARN)
	if err != nil {
		return StackInfo{}, fmt.Errorf("parsing stack ARN %q: %w", stackARN, err)
	}

	parts := strings.Split(parsed.Resource, "/")
	if len(parts) != 3 || parts[0] != "stack" {
		return StackInfo{}, fmt.Errorf("stack ARN %q has unexpected resource %q", stackARN, parsed.Resource)
	}

	return StackInfo{
		StackARN:  stackARN,
		StackName: parts[1],
		StackID:   parts[2],
		AccountID: parsed.AccountID,
		Region:    parsed.Region,
	}, nil
}

// StackDetails is the describe-time view of a provisioned stack: its status
// plus the outputs and parameters surfaced to deployment listings.
type StackDetails struct {
	Status                  string
	WebConfigKey            string
	ChatConfigParameterName string
	WebURL                  string
	DefaultUserEmail        string
	SearchIndexID           string
	DashboardURL            string
	UseCaseID               string
	RAGEnabled              string
	ProviderAPIKeySecret    string
}

// DeploymentSummary is the record-store portion of a deployment listing.
type DeploymentSummary struct {
	UseCaseID    string `json:"useCaseId"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ProviderName string `json:"providerName"`
	UseCaseType  string `json:"useCaseType"`
	StackID      string `json:"stackId"`
	ConfigKey    string `json:"configKey"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// DeploymentDetails is the external-facing aggregate produced by listing:
// the record-store record merged with the stack's current describe output
// and the parsed configuration.
type DeploymentDetails struct {
	DeploymentSummary

	Status                  string `json:"status"`
	WebConfigKey            string `json:"webConfigKey,omitempty"`
	ChatConfigParameterName string `json:"chatConfigParameterName,omitempty"`
	WebURL                  string `json:"webUrl,omitempty"`
	DefaultUserEmail        string `json:"defaultUserEmail,omitempty"`
	SearchIndexID           string `json:"searchIndexId,omitempty"`
	DashboardURL            string `json:"dashboardUrl,omitempty"`
	RAGEnabled              string `json:"ragEnabled,omitempty"`
	ProviderAPIKeySecret    string `json:"providerApiKeySecret,omitempty"`

	Configuration map[string]any `json:"configuration,omitempty"`
}

// DeploymentListing is one best-effort page of deployments. ScannedCount
// reflects how many records the page scan touched, so callers can continue
// pagination even when individual records were skipped.
type DeploymentListing struct {
	Deployments   []DeploymentDetails `json:"deployments"`
	ScannedCount  int32               `json:"scannedCount"`
	NextPageToken string              `json:"nextPageToken,omitempty"`
}
