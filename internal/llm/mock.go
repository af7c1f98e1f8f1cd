package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient permite tests sin llamar a un LLM real.
// Con Delay > 0 espera antes de responder y respeta la cancelación del contexto.
type MockClient struct {
	Response string
	Err      error
	Delay    time.Duration

	mu      sync.Mutex
	Prompts []string
	Options []GenerateOptions
}

func (m *MockClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, opts)
	m.mu.Unlock()

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return m.Response, m.Err
}

// Calls devuelve cuántas veces se invocó Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
