// Package domain provides core domain types and entities for Skiff.
package domain

import (
	"github.com/google/uuid"
)

const (
	// ShortIDLength is the number of leading characters of a use case ID
	// used as the resource-name-safe suffix in generated store keys.
	ShortIDLength = 8

	// ConfigParameterKey is the reserved deployment parameter under which
	// the config store pointer is passed to the provisioned stack.
	ConfigParameterKey = "ChatConfigSSMParameterName"

	// SecretNameSuffix is the fixed suffix of provider API key secret names.
	SecretNameSuffix = "api-key"
)

// Providers that need a third-party API key stored alongside the deployment.
// All other providers use platform-managed credentials and never touch the
// secret store.
var secretProviders = map[string]struct{}{
	"HuggingFace":                   {},
	"HuggingFace-InferenceEndpoint": {},
	"Anthropic":                     {},
}

// RequiresSecret reports whether deployments for the given model provider
// need a third-party API key secret.
func RequiresSecret(providerName string) bool {
	_, ok := secretProviders[providerName]
	return ok
}

// Parameter is a single deployment parameter passed verbatim to the
// provisioning service.
type Parameter struct {
	Key   string
	Value string
}

// Parameters is an ordered set of deployment parameters with unique keys.
type Parameters []Parameter

// Set upserts a parameter, preserving the position of an existing key.
func (p *Parameters) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Parameter{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (p Parameters) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// UseCase describes one tenant deployment. StackID and ConfigKey start empty
// and are assigned by the orchestrator as the workflow progresses.
type UseCase struct {
	ID           uuid.UUID
	Name         string
	Description  string
	UserID       string
	ProviderName string
	UseCaseType  string

	DeploymentParameters Parameters
	Configuration        map[string]any

	// APIKey is only set for providers that require a third-party credential.
	APIKey string

	// StackID is the provisioned stack ARN, empty until stack creation succeeds.
	StackID string

	// ConfigKey is the config store pointer, regenerated on every deploy.
	ConfigKey string
}

// NewUseCase creates a use case for a create request, generating a fresh ID.
func NewUseCase(name, description, userID, providerName, useCaseType string) *UseCase {
	return &UseCase{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		UserID:       userID,
		ProviderName: providerName,
		UseCaseType:  useCaseType,
	}
}

// ShortID returns the first characters of the use case ID, used as the
// resource-name-safe suffix everywhere a store key is generated.
func (u *UseCase) ShortID() string {
	return ShortID(u.ID)
}

// TemplateName selects which infrastructure template the provisioning
// service instantiates.
func (u *UseCase) TemplateName() string {
	return u.ProviderName + u.UseCaseType
}

// SecretName returns the secret store name for the provider API key.
func (u *UseCase) SecretName() string {
	return u.ShortID() + "/" + SecretNameSuffix
}

// RequiresSecret reports whether this use case's provider needs an API key
// secret.
func (u *UseCase) RequiresSecret() bool {
	return RequiresSecret(u.ProviderName)
}

// ShortID derives the resource-name-safe suffix from a use case ID.
func ShortID(id uuid.UUID) string {
	return id.String()[:ShortIDLength]
}
