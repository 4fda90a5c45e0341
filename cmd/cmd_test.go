// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/mocks"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"github.com/xkilldash9x/dailyembed/internal/workflow"
	"go.uber.org/zap"
)

var errStopBeforeBrowser = errors.New("launcher stopped the test run")

var latestEntry = feed.Entry{
	Video: feed.NewVideoReference("abc123", "https://www.youtube.com/watch?v=abc123"),
	Title: "Evangelio del día",
}

// resetForTest isolates the logger, the seams and the environment.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()

	origFeed, origLaunch := newFeedResolver, launchBrowser
	t.Cleanup(func() {
		newFeedResolver, launchBrowser = origFeed, origLaunch
		observability.ResetForTest()
	})

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DAILYEMBED_LOGGER_LOG_FILE", filepath.Join(dir, "dailyembed.log"))
	t.Setenv("DAILYEMBED_LOGGER_LEVEL", "fatal")
	t.Setenv("DAILYEMBED_USERNAME", "editor@example.org")
	t.Setenv("DAILYEMBED_PASSWORD", "s3cret")
}

// stubFeed makes every command resolve to entry or err.
func stubFeed(entry feed.Entry, err error) *mocks.MockFeedResolver {
	f := &mocks.MockFeedResolver{}
	f.On("Latest", mock.Anything).Return(entry, err)
	newFeedResolver = func(config.FeedConfig, *zap.Logger) feed.Resolver { return f }
	return f
}

// recordLaunch captures the browser settings and aborts the run.
func recordLaunch(got *config.BrowserConfig, launched *bool) {
	launchBrowser = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (workflow.BrowserSession, error) {
		*launched = true
		*got = cfg
		return nil, errStopBeforeBrowser
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	resetForTest(t)
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dailyembed version "+Version)
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range NewRootCommand().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "latest"})
}

func TestRunCmd_RejectsArguments(t *testing.T) {
	root := NewRootCommand()
	root.PersistentPreRunE = nil // Argument validation only.
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run", "extra"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestRunCmd_MissingCredentials(t *testing.T) {
	resetForTest(t)
	t.Setenv("DAILYEMBED_USERNAME", "")
	t.Setenv("DAILYEMBED_PASSWORD", "")
	f := stubFeed(latestEntry, nil)
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	_, err := executeCommand(t, "run")

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ElementsMatch(t, []string{"DAILYEMBED_USERNAME", "DAILYEMBED_PASSWORD"}, cfgErr.Missing)
	assert.False(t, launched)
	f.AssertNotCalled(t, "Latest", mock.Anything)
}

func TestRunCmd_FlagsReachTheBrowser(t *testing.T) {
	resetForTest(t)
	stubFeed(latestEntry, nil)
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	_, err := executeCommand(t, "run", "--headless=false", "--day", "12", "--dry-run")

	assert.ErrorIs(t, err, errStopBeforeBrowser)
	assert.True(t, launched)
	assert.False(t, got.Headless)
}

func TestRunCmd_DayOutOfRange(t *testing.T) {
	resetForTest(t)
	f := stubFeed(latestEntry, nil)
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	_, err := executeCommand(t, "run", "--day", "40")

	var cfgErr *config.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.False(t, launched)
	f.AssertNotCalled(t, "Latest", mock.Anything)
}

func TestRunCmd_EmptyFeedNeverLaunches(t *testing.T) {
	resetForTest(t)
	stubFeed(feed.Entry{}, &feed.FeedError{URL: "https://example.org/feed", Reason: "no entries", Err: feed.ErrEmptyFeed})
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	_, err := executeCommand(t, "run")
	assert.ErrorIs(t, err, feed.ErrEmptyFeed)
	assert.False(t, launched)
}

func TestLatestCmd_NeedsNoCredentials(t *testing.T) {
	resetForTest(t)
	t.Setenv("DAILYEMBED_USERNAME", "")
	t.Setenv("DAILYEMBED_PASSWORD", "")
	stubFeed(latestEntry, nil)

	out, err := executeCommand(t, "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "id:        abc123")
	assert.Contains(t, out, "embed:     https://www.youtube.com/embed/abc123")
	assert.Contains(t, out, "title:     Evangelio del día")
}

func TestConfigFileOverride(t *testing.T) {
	resetForTest(t)
	stubFeed(latestEntry, nil)
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
browser:
  headless: false
  window_width: 1024
`), 0o600))

	_, err := executeCommand(t, "run", "--config", configFile)
	assert.ErrorIs(t, err, errStopBeforeBrowser)
	assert.False(t, got.Headless)
	assert.Equal(t, 1024, got.WindowWidth)
}

func TestConfigFileMissing(t *testing.T) {
	resetForTest(t)
	_, err := executeCommand(t, "latest", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestEnvFileSuppliesCredentials(t *testing.T) {
	resetForTest(t)
	// godotenv never overrides variables that already exist, even empty ones.
	for _, k := range []string{"DAILYEMBED_USERNAME", "DAILYEMBED_PASSWORD"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("DAILYEMBED_USERNAME")
		_ = os.Unsetenv("DAILYEMBED_PASSWORD")
	})
	stubFeed(latestEntry, nil)
	var got config.BrowserConfig
	var launched bool
	recordLaunch(&got, &launched)

	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DAILYEMBED_USERNAME=dotenv-user\nDAILYEMBED_PASSWORD=dotenv-pass\n"), 0o600))

	_, err := executeCommand(t, "run", "--env-file", envPath)
	assert.ErrorIs(t, err, errStopBeforeBrowser, "credentials from the env file pass validation")
	assert.Equal(t, "dotenv-user", os.Getenv("DAILYEMBED_USERNAME"))
}

func TestConfigFrom(t *testing.T) {
	_, err := configFrom(context.Background())
	assert.Error(t, err)

	cfg := config.NewDefaultConfig()
	got, err := configFrom(context.WithValue(context.Background(), configKey, cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
