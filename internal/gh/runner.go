package gh

import (
	"context"
	"os"
	"os/exec"
)

// CommandRunner is an interface for executing system commands.
// The abstraction exists so gh and git invocations can be mocked in tests.
type CommandRunner interface {
	// Run executes a command and returns the combined output and error.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunEnv executes a command with extra environment variables appended.
	RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error)

	// RunInDir executes a command in a specific directory.
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner is the production implementation using os/exec.
type ExecRunner struct{}

// Run executes a command using os/exec.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// RunEnv executes a command with extra environment variables.
func (r *ExecRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	return cmd.CombinedOutput()
}

// RunInDir executes a command in a specific directory.
func (r *ExecRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// MockCall records a single command invocation.
type MockCall struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

// MockRunner is a test implementation that returns predefined responses.
type MockRunner struct {
	// RunFunc handles all three invocation styles when set.
	RunFunc func(name string, args ...string) ([]byte, error)

	// Calls tracks all command invocations.
	Calls []MockCall
}

// NewMockRunner creates a mock with default behavior (empty output).
func NewMockRunner() *MockRunner {
	return &MockRunner{Calls: make([]MockCall, 0)}
}

// Run executes the mock function.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return []byte(""), nil
}

// RunEnv executes the mock function, recording the extra environment.
func (m *MockRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args, Env: extraEnv})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return []byte(""), nil
}

// RunInDir executes the mock function with directory context.
func (m *MockRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args, Dir: dir})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return []byte(""), nil
}
