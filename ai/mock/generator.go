package mock

import (
	"context"

	"github.com/poiesic/recall/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns Response (or a canned default).
	GenerateFunc func(ctx context.Context, req ai.GenerationRequest) (string, error)

	// Response is returned by Generate when GenerateFunc is nil.
	Response string

	callCount int
	requests  []ai.GenerationRequest
}

// NewMockGenerator creates a mock generator with a canned default response.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Response: "mock response"}
}

// Generate records the request and returns the injected or canned response.
func (m *MockGenerator) Generate(ctx context.Context, req ai.GenerationRequest) (string, error) {
	m.callCount++
	m.requests = append(m.requests, req)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return m.Response, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastRequest returns the most recent request, or a zero value if none.
func (m *MockGenerator) LastRequest() ai.GenerationRequest {
	if len(m.requests) == 0 {
		return ai.GenerationRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears recorded requests and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.requests = nil
	m.GenerateFunc = nil
	m.Response = "mock response"
}
