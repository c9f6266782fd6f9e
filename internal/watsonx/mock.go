package watsonx

import "context"

// MockCompleter scripts generation responses for tests and offline runs.
// When Func is nil every call returns Response.
type MockCompleter struct {
	Response string
	Func     func(prompt string, p Params) (string, error)
	Calls    int
}

func (m *MockCompleter) Complete(_ context.Context, prompt string, p Params) (string, error) {
	m.Calls++
	if m.Func != nil {
		return m.Func(prompt, p)
	}
	return m.Response, nil
}
