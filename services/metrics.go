package services

import "sync"

// OperationMetrics counts successes and failures per named operation. The
// provisioning client records one count per API call; nothing in this
// package reads them back except tests and operational endpoints.
type OperationMetrics struct {
	mu      sync.Mutex
	success map[string]int64
	failure map[string]int64
}

func NewOperationMetrics() *OperationMetrics {
	return &OperationMetrics{
		success: make(map[string]int64),
		failure: make(map[string]int64),
	}
}

// Record bumps the success or failure counter for operation depending on err.
func (m *OperationMetrics) Record(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failure[operation]++
		return
	}
	m.success[operation]++
}

func (m *OperationMetrics) Success(operation string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.success[operation]
}

func (m *OperationMetrics) Failure(operation string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure[operation]
}
