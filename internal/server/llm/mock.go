package llm

import "context"

// MockProvider returns canned responses. Used in tests and as a fallback when
// no model backend is configured.
type MockProvider struct {
	Response string
	Err      error

	// Calls records the messages of every Generate invocation.
	Calls [][]Message
}

func (p *MockProvider) Generate(_ context.Context, messages []Message, _ string) (string, error) {
	p.Calls = append(p.Calls, messages)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Response, nil
}
