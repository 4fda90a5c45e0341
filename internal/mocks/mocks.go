// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Auth() config.AuthConfig {
	args := m.Called()
	return args.Get(0).(config.AuthConfig)
}

func (m *MockConfig) Feed() config.FeedConfig {
	args := m.Called()
	return args.Get(0).(config.FeedConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Navigation() config.NavigationConfig {
	args := m.Called()
	return args.Get(0).(config.NavigationConfig)
}

func (m *MockConfig) Target() config.TargetConfig {
	args := m.Called()
	return args.Get(0).(config.TargetConfig)
}

func (m *MockConfig) Link() config.LinkConfig {
	args := m.Called()
	return args.Get(0).(config.LinkConfig)
}

func (m *MockConfig) Editor() config.EditorConfig {
	args := m.Called()
	return args.Get(0).(config.EditorConfig)
}

func (m *MockConfig) Debug() config.DebugConfig {
	args := m.Called()
	return args.Get(0).(config.DebugConfig)
}

func (m *MockConfig) Run() config.RunConfig {
	args := m.Called()
	return args.Get(0).(config.RunConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool) { m.Called(b) }

func (m *MockConfig) SetTargetDay(d int) { m.Called(d) }

func (m *MockConfig) SetEditorVideoButtonIndex(i int) { m.Called(i) }

func (m *MockConfig) SetRunConfig(rc config.RunConfig) { m.Called(rc) }

// -- Feed Mock --

// MockFeedResolver mocks feed.Resolver.
type MockFeedResolver struct {
	mock.Mock
}

var _ feed.Resolver = (*MockFeedResolver)(nil)

func (m *MockFeedResolver) Latest(ctx context.Context) (feed.Entry, error) {
	args := m.Called(ctx)
	return args.Get(0).(feed.Entry), args.Error(1)
}

// -- Session Mock --

// MockAuthenticator mocks the login and expiry checks of the session manager.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAuthenticator) CheckExpiry(ctx context.Context) (bool, string, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.String(1), args.Error(2)
}

// -- Browser Mock --

// MockBrowserSession mocks a launched browser.
type MockBrowserSession struct {
	mock.Mock
}

func (m *MockBrowserSession) Page() browser.Page {
	args := m.Called()
	if p := args.Get(0); p != nil {
		return p.(browser.Page)
	}
	return nil
}

func (m *MockBrowserSession) Close() error { return m.Called().Error(0) }
