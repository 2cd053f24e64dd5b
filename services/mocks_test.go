package services

import (
	"context"
	"fmt"

	"github.com/skiff-cd/skiff/domain"
)

const testStackARN = "arn:aws:cloudformation:us-east-1:123456789012:stack/assistant-11111111/f449b250-b969-11e0-a185-5081d0136786"

// MockStackProvisioner for testing
type MockStackProvisioner struct {
	CreateFunc   func(ctx context.Context, useCase *domain.UseCase) (string, error)
	UpdateFunc   func(ctx context.Context, useCase *domain.UseCase) (string, error)
	DeleteFunc   func(ctx context.Context, useCase *domain.UseCase) error
	DescribeFunc func(ctx context.Context, info domain.StackInfo) (*domain.StackDetails, error)

	CreateCalls   int
	UpdateCalls   int
	DeleteCalls   int
	DescribeCalls int
}

func (m *MockStackProvisioner) Create(ctx context.Context, useCase *domain.UseCase) (string, error) {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, useCase)
	}
	return testStackARN, nil
}

func (m *MockStackProvisioner) Update(ctx context.Context, useCase *domain.UseCase) (string, error) {
	m.UpdateCalls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, useCase)
	}
	return useCase.StackID, nil
}

func (m *MockStackProvisioner) Delete(ctx context.Context, useCase *domain.UseCase) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, useCase)
	}
	return nil
}

func (m *MockStackProvisioner) Describe(ctx context.Context, info domain.StackInfo) (*domain.StackDetails, error) {
	m.DescribeCalls++
	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, info)
	}
	return &domain.StackDetails{Status: "CREATE_COMPLETE"}, nil
}

// MockConfigStore for testing
type MockConfigStore struct {
	GenerateKeyFunc func(shortID string) string
	PutFunc         func(ctx context.Context, key string, config map[string]any) error
	GetFunc         func(ctx context.Context, key string) (map[string]any, error)
	DeleteFunc      func(ctx context.Context, key string) error

	GenerateKeyCalls int
	PutCalls         int
	GetCalls         int
	DeleteCalls      int
}

func (m *MockConfigStore) GenerateKey(shortID string) string {
	m.GenerateKeyCalls++
	if m.GenerateKeyFunc != nil {
		return m.GenerateKeyFunc(shortID)
	}
	// Unique per call, like the real store.
	return fmt.Sprintf("/skiff/%s/suffix%d", shortID, m.GenerateKeyCalls)
}

func (m *MockConfigStore) Put(ctx context.Context, key string, config map[string]any) error {
	m.PutCalls++
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, config)
	}
	return nil
}

func (m *MockConfigStore) Get(ctx context.Context, key string) (map[string]any, error) {
	m.GetCalls++
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return map[string]any{}, nil
}

func (m *MockConfigStore) Delete(ctx context.Context, key string) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

// MockSecretStore for testing
type MockSecretStore struct {
	CreateFunc func(ctx context.Context, name, value string) error
	PutFunc    func(ctx context.Context, name, value string) error
	DeleteFunc func(ctx context.Context, name string) error

	CreateCalls int
	PutCalls    int
	DeleteCalls int
}

func (m *MockSecretStore) Create(ctx context.Context, name, value string) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, value)
	}
	return nil
}

func (m *MockSecretStore) Put(ctx context.Context, name, value string) error {
	m.PutCalls++
	if m.PutFunc != nil {
		return m.PutFunc(ctx, name, value)
	}
	return nil
}

func (m *MockSecretStore) Delete(ctx context.Context, name string) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

// MockRecordStore for testing
type MockRecordStore struct {
	CreateFunc          func(ctx context.Context, record *UseCaseRecord) error
	GetFunc             func(ctx context.Context, useCaseID string) (*UseCaseRecord, error)
	UpdateFunc          func(ctx context.Context, record *UseCaseRecord) error
	MarkForDeletionFunc func(ctx context.Context, useCaseID string) error
	DeleteFunc          func(ctx context.Context, useCaseID string) error
	ScanFunc            func(ctx context.Context, pageToken string) (*RecordPage, error)

	CreateCalls          int
	GetCalls             int
	UpdateCalls          int
	MarkForDeletionCalls int
	DeleteCalls          int
	ScanCalls            int
}

func (m *MockRecordStore) Create(ctx context.Context, record *UseCaseRecord) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	return nil
}

func (m *MockRecordStore) Get(ctx context.Context, useCaseID string) (*UseCaseRecord, error) {
	m.GetCalls++
	if m.GetFunc != nil {
		return m.GetFunc(ctx, useCaseID)
	}
	return nil, ErrRecordNotFound
}

func (m *MockRecordStore) Update(ctx context.Context, record *UseCaseRecord) error {
	m.UpdateCalls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, record)
	}
	return nil
}

func (m *MockRecordStore) MarkForDeletion(ctx context.Context, useCaseID string) error {
	m.MarkForDeletionCalls++
	if m.MarkForDeletionFunc != nil {
		return m.MarkForDeletionFunc(ctx, useCaseID)
	}
	return nil
}

func (m *MockRecordStore) Delete(ctx context.Context, useCaseID string) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, useCaseID)
	}
	return nil
}

func (m *MockRecordStore) Scan(ctx context.Context, pageToken string) (*RecordPage, error) {
	m.ScanCalls++
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, pageToken)
	}
	return &RecordPage{}, nil
}
