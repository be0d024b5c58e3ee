package contract

import (
	"context"

	"github.com/huangsam/tagchurn/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock for the GitClient interface.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	root, _ := ret.Get(0).(string)
	return root, ret.Error(1)
}

// GetChurnLog implements the GitClient interface.
func (m *MockGitClient) GetChurnLog(ctx context.Context, repoPath string, rangeArgs []string, reverse bool) ([]byte, error) {
	ret := m.Called(ctx, repoPath, rangeArgs, reverse)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// ShowFile implements the GitClient interface.
func (m *MockGitClient) ShowFile(ctx context.Context, repoPath, rev, path string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, rev, path)
	content, _ := ret.Get(0).([]byte)
	return content, ret.Error(1)
}

// MockTagAnalyzer is a testify mock for the TagAnalyzer interface.
type MockTagAnalyzer struct {
	mock.Mock
}

var _ TagAnalyzer = &MockTagAnalyzer{} // Compile-time check

// Name implements the TagAnalyzer interface.
func (m *MockTagAnalyzer) Name() string {
	ret := m.Called()
	return ret.String(0)
}

// Tags implements the TagAnalyzer interface.
func (m *MockTagAnalyzer) Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error) {
	ret := m.Called(ctx, path, content)
	tags, _ := ret.Get(0).([]schema.Tag)
	return tags, ret.Error(1)
}
