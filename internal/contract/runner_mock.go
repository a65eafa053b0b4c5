package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	mock.Mock
}

var _ Runner = &MockRunner{} // Compile-time check

// Run implements the Runner interface.
func (m *MockRunner) Run(ctx context.Context, argv []string, cwd string) (string, error) {
	args := m.Called(ctx, argv, cwd)
	return args.String(0), args.Error(1)
}
