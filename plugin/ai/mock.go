package ai

import (
	"context"
	"sync"
)

// MockLLMService is a scripted LLMService for tests.
type MockLLMService struct {
	mu        sync.Mutex
	responses []string
	err       error
	block     bool
	calls     [][]Message
	temps     []float32
}

// NewMockLLMService returns a mock that replies with the given responses in order.
// The last response repeats once the list is exhausted.
func NewMockLLMService(responses ...string) *MockLLMService {
	return &MockLLMService{responses: responses}
}

// SetError makes every subsequent call fail with err.
func (m *MockLLMService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetBlocking makes every subsequent call wait for its context to end.
func (m *MockLLMService) SetBlocking(block bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

// Complete implements LLMService.
func (m *MockLLMService) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	m.mu.Lock()
	copied := make([]Message, len(messages))
	copy(copied, messages)
	m.calls = append(m.calls, copied)
	m.temps = append(m.temps, temperature)
	block, err := m.block, m.err

	var resp string
	if len(m.responses) > 0 {
		resp = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

// Calls returns the messages of every call so far.
func (m *MockLLMService) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Message(nil), m.calls...)
}

// Temperatures returns the temperature of every call so far.
func (m *MockLLMService) Temperatures() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float32(nil), m.temps...)
}

var _ LLMService = (*MockLLMService)(nil)
