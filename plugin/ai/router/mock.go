package router

import "context"

// MockClassifierService is a mock implementation of ClassifierService for testing.
type MockClassifierService struct {
	// Overrides allows tests to force the classification of an exact input.
	Overrides map[string]Classification
	matcher   *RuleMatcher
}

// NewMockClassifierService creates a new MockClassifierService backed by the default rules.
func NewMockClassifierService() *MockClassifierService {
	return &MockClassifierService{
		Overrides: make(map[string]Classification),
		matcher:   NewRuleMatcher(),
	}
}

// Classify returns the override for text if any, else the rule result.
func (m *MockClassifierService) Classify(_ context.Context, text string) Classification {
	if c, ok := m.Overrides[text]; ok {
		return c
	}
	return m.matcher.Match(text)
}

// Ensure MockClassifierService implements ClassifierService
var _ ClassifierService = (*MockClassifierService)(nil)
