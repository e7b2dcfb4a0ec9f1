package ai

import (
	"context"
	"sync"
)

// MockGateway is a scripted Gateway for tests. Each call consumes the next
// step; the last step repeats once the script runs out.
type MockGateway struct {
	mu    sync.Mutex
	steps []MockStep
	calls []MockCall
}

// MockStep is one scripted completion outcome.
type MockStep struct {
	Content string
	Err     error
}

// MockCall records the parameters of one Complete invocation.
type MockCall struct {
	Messages []Message
	Opts     Options
}

func NewMockGateway(steps ...MockStep) *MockGateway {
	return &MockGateway{steps: steps}
}

func (m *MockGateway) Complete(_ context.Context, messages []Message, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Messages: messages, Opts: opts})

	if len(m.steps) == 0 {
		return "", ErrEmptyCompletion
	}
	step := m.steps[0]
	if len(m.steps) > 1 {
		m.steps = m.steps[1:]
	}
	return step.Content, step.Err
}

// Calls returns the recorded invocations.
func (m *MockGateway) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
