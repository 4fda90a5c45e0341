// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix applied to every environment variable binding.
const EnvPrefix = "DAILYEMBED"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Auth() AuthConfig
	Feed() FeedConfig
	Browser() BrowserConfig
	Navigation() NavigationConfig
	Target() TargetConfig
	Link() LinkConfig
	Editor() EditorConfig
	Debug() DebugConfig
	Run() RunConfig

	// CLI overrides
	SetBrowserHeadless(bool)
	SetTargetDay(int)
	SetEditorVideoButtonIndex(int)
	SetRunConfig(rc RunConfig)
}

// Config holds the entire application configuration. A single value is built
// at startup and handed read-only to every component through Interface.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	AuthCfg       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	FeedCfg       FeedConfig       `mapstructure:"feed" yaml:"feed"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	NavigationCfg NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	TargetCfg     TargetConfig     `mapstructure:"target" yaml:"target"`
	LinkCfg       LinkConfig       `mapstructure:"link" yaml:"link"`
	EditorCfg     EditorConfig     `mapstructure:"editor" yaml:"editor"`
	DebugCfg      DebugConfig      `mapstructure:"debug" yaml:"debug"`
	// RunCfg gets its marching orders from CLI flags, not the config file.
	RunCfg RunConfig `mapstructure:"-" yaml:"-"`
}

// -- Getters --

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Auth() AuthConfig             { return c.AuthCfg }
func (c *Config) Feed() FeedConfig             { return c.FeedCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Navigation() NavigationConfig { return c.NavigationCfg }
func (c *Config) Target() TargetConfig         { return c.TargetCfg }
func (c *Config) Link() LinkConfig             { return c.LinkCfg }
func (c *Config) Editor() EditorConfig         { return c.EditorCfg }
func (c *Config) Debug() DebugConfig           { return c.DebugCfg }
func (c *Config) Run() RunConfig               { return c.RunCfg }

// -- Setters --

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetTargetDay(d int)        { c.TargetCfg.Day = d }
func (c *Config) SetEditorVideoButtonIndex(i int) {
	c.EditorCfg.VideoButtonIndex = &i
}
func (c *Config) SetRunConfig(rc RunConfig) { c.RunCfg = rc }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
	// Secrets are replaced with "***" in every log entry. Populated from Auth.
	Secrets []string `mapstructure:"-" yaml:"-"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AuthConfig describes the admin login form and how success is recognized.
type AuthConfig struct {
	Username           string        `mapstructure:"username" yaml:"-"`
	Password           string        `mapstructure:"password" yaml:"-"`
	LoginURL           string        `mapstructure:"login_url" yaml:"login_url"`
	LoginTimeout       time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	UsernameSelector   string        `mapstructure:"username_selector" yaml:"username_selector"`
	PasswordSelector   string        `mapstructure:"password_selector" yaml:"password_selector"`
	SubmitSelector     string        `mapstructure:"submit_selector" yaml:"submit_selector"`
	SuccessURLFragment string        `mapstructure:"success_url_fragment" yaml:"success_url_fragment"`
	MenuSelector       string        `mapstructure:"menu_selector" yaml:"menu_selector"`
	LoginPathMarker    string        `mapstructure:"login_path_marker" yaml:"login_path_marker"`
	ChallengeMarkers   []string      `mapstructure:"challenge_markers" yaml:"challenge_markers"`
}

// FeedConfig points at the video feed and lists the hosts treated as video embeds.
type FeedConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	VideoDomains []string      `mapstructure:"video_domains" yaml:"video_domains"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth     int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int           `mapstructure:"window_height" yaml:"window_height"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// NavigationConfig tunes the page-load retry policy.
type NavigationConfig struct {
	Retries   int           `mapstructure:"retries" yaml:"retries"`
	RetryWait time.Duration `mapstructure:"retry_wait" yaml:"retry_wait"`
}

// MaxAttempts is the total number of page loads a single navigation may perform.
func (n NavigationConfig) MaxAttempts() int {
	if n.Retries < 0 {
		return 1
	}
	return n.Retries + 1
}

// TargetConfig identifies the landing page and the day's entry on it.
type TargetConfig struct {
	LandingURL         string `mapstructure:"landing_url" yaml:"landing_url"`
	Day                int    `mapstructure:"day" yaml:"day"`
	Timezone           string `mapstructure:"timezone" yaml:"timezone"`
	CurrentItemsMarker string `mapstructure:"current_items_marker" yaml:"current_items_marker"`
	EditMarker         string `mapstructure:"edit_marker" yaml:"edit_marker"`
	DisabledClass      string `mapstructure:"disabled_class" yaml:"disabled_class"`
	EditorSelector     string `mapstructure:"editor_selector" yaml:"editor_selector"`
}

// ResolveDay returns the configured day or, when unset, today's day of month
// in the configured timezone.
func (t TargetConfig) ResolveDay(now time.Time) (int, error) {
	if t.Day > 0 {
		return t.Day, nil
	}
	loc := time.Local
	if t.Timezone != "" && !strings.EqualFold(t.Timezone, "local") {
		l, err := time.LoadLocation(t.Timezone)
		if err != nil {
			return 0, fmt.Errorf("target.timezone %q: %w", t.Timezone, err)
		}
		loc = l
	}
	return now.In(loc).Day(), nil
}

// LinkConfig configures the link resolution state machine.
type LinkConfig struct {
	HrefFragment   string        `mapstructure:"href_fragment" yaml:"href_fragment"`
	Label          string        `mapstructure:"label" yaml:"label"`
	MarkupPattern  string        `mapstructure:"markup_pattern" yaml:"markup_pattern"`
	DirectURL      string        `mapstructure:"direct_url" yaml:"direct_url"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries        int           `mapstructure:"retries" yaml:"retries"`
	SectionMarkers []string      `mapstructure:"section_markers" yaml:"section_markers"`
}

// EditorConfig configures the rich-text editor mutation steps.
type EditorConfig struct {
	EmbedSelector       string        `mapstructure:"embed_selector" yaml:"embed_selector"`
	CursorMarker        string        `mapstructure:"cursor_marker" yaml:"cursor_marker"`
	VideoURLSelector    string        `mapstructure:"video_url_selector" yaml:"video_url_selector"`
	VideoButtonSelector string        `mapstructure:"video_button_selector" yaml:"video_button_selector"`
	VideoButtonIndex    *int          `mapstructure:"video_button_index" yaml:"video_button_index"`
	ToolbarControls     string        `mapstructure:"toolbar_controls" yaml:"toolbar_controls"`
	TrialTimeout        time.Duration `mapstructure:"trial_timeout" yaml:"trial_timeout"`
	DialogTimeout       time.Duration `mapstructure:"dialog_timeout" yaml:"dialog_timeout"`
	CancelLabels        []string      `mapstructure:"cancel_labels" yaml:"cancel_labels"`
	VideoWidth          int           `mapstructure:"video_width" yaml:"video_width"`
	VideoHeight         int           `mapstructure:"video_height" yaml:"video_height"`
	SaveKeywords        []string      `mapstructure:"save_keywords" yaml:"save_keywords"`
	SaveLabels          []string      `mapstructure:"save_labels" yaml:"save_labels"`
}

// DebugConfig controls where failure screenshots and markup dumps go.
type DebugConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ArtifactDir string `mapstructure:"artifact_dir" yaml:"artifact_dir"`
}

// RunConfig holds settings populated from CLI flags for a single run.
type RunConfig struct {
	DryRun bool
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dailyembed")
	v.SetDefault("logger.log_file", "~/.dailyembed/logs/dailyembed.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 30)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", false)

	// -- Auth --
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.login_url", "https://admin.diocesisdeneiva.org/auth/login?callbackUrl=%2Fdashboard")
	v.SetDefault("auth.login_timeout", "45s")
	v.SetDefault("auth.username_selector", "#email")
	v.SetDefault("auth.password_selector", "#password")
	v.SetDefault("auth.submit_selector", "button[type='submit']")
	v.SetDefault("auth.success_url_fragment", "/dashboard")
	v.SetDefault("auth.menu_selector", "a[href*='/espiritualidad']")
	v.SetDefault("auth.login_path_marker", "/auth/login")
	v.SetDefault("auth.challenge_markers", []string{"captcha", "recaptcha", "hcaptcha", "cf-turnstile"})

	// -- Feed --
	v.SetDefault("feed.url", "https://www.youtube.com/feeds/videos.xml?channel_id=UCydLv78Ybqcg2y74FR2VYIw")
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("feed.video_domains", []string{"youtube.com", "youtu.be", "youtube-nocookie.com"})

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1400)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.page_load_timeout", "90s")
	v.SetDefault("browser.default_timeout", "15s")
	v.SetDefault("browser.poll_interval", "250ms")

	// -- Navigation --
	v.SetDefault("navigation.retries", 2)
	v.SetDefault("navigation.retry_wait", "3s")

	// -- Target --
	v.SetDefault("target.landing_url", "https://admin.diocesisdeneiva.org/espiritualidad/dios-hoy")
	v.SetDefault("target.day", 0)
	v.SetDefault("target.timezone", "Local")
	v.SetDefault("target.current_items_marker", "Evangelios actuales")
	v.SetDefault("target.edit_marker", "Editar reflexión")
	v.SetDefault("target.disabled_class", "text-gray-400")
	v.SetDefault("target.editor_selector", "div[contenteditable='true']")

	// -- Link resolution --
	v.SetDefault("link.href_fragment", "/espiritualidad/evangelios")
	v.SetDefault("link.label", "Evangelios")
	v.SetDefault("link.markup_pattern", "evangelios-y-santo")
	v.SetDefault("link.direct_url", "https://admin.diocesisdeneiva.org/espiritualidad/evangelios")
	v.SetDefault("link.timeout", "45s")
	v.SetDefault("link.retries", 1)
	v.SetDefault("link.section_markers", []string{"Evangelios actuales", "Evangelios disponibles"})

	// -- Editor --
	v.SetDefault("editor.embed_selector", "iframe.ql-video")
	v.SetDefault("editor.cursor_marker", "Reflexión del día")
	v.SetDefault("editor.video_url_selector", "input[type='url'], input[placeholder*='Embed']")
	v.SetDefault("editor.video_button_selector", ".ql-video")
	v.SetDefault("editor.toolbar_controls", "button[type='button'], span[role='button']")
	v.SetDefault("editor.trial_timeout", "1s")
	v.SetDefault("editor.dialog_timeout", "15s")
	v.SetDefault("editor.cancel_labels", []string{"cancelar", "cerrar"})
	v.SetDefault("editor.video_width", 840)
	v.SetDefault("editor.video_height", 472)
	v.SetDefault("editor.save_keywords", []string{"guardar", "actualizar", "publicar"})
	v.SetDefault("editor.save_labels", []string{"Guardar", "Guardar cambios", "Actualizar", "Publicar"})

	// -- Debug --
	v.SetDefault("debug.enabled", true)
	v.SetDefault("debug.artifact_dir", "")
}

// unsetKeys are the settings with no default value.
var unsetKeys = []string{
	"browser.exec_path",
	"browser.user_agent",
	"browser.args",
	"editor.video_button_index",
}

// NewConfigFromViper creates a new configuration instance from a viper object
// and validates it.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg, err := LoadFromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromViper unmarshals and normalizes the configuration without
// validating it. Commands that never open the admin site use it directly.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Credentials only ever come from the environment (or a .env file).
	_ = v.BindEnv("auth.username", EnvPrefix+"_USERNAME")
	_ = v.BindEnv("auth.password", EnvPrefix+"_PASSWORD")
	// AutomaticEnv only sees keys viper already knows; these have no default.
	for _, key := range unsetKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	cfg.LoggerCfg.Secrets = cfg.secrets()
	return &cfg, nil
}

// expandPaths resolves "~" in file system settings.
func (c *Config) expandPaths() error {
	logFile, err := homedir.Expand(c.LoggerCfg.LogFile)
	if err != nil {
		return fmt.Errorf("logger.log_file: %w", err)
	}
	c.LoggerCfg.LogFile = logFile

	artifactDir, err := homedir.Expand(c.DebugCfg.ArtifactDir)
	if err != nil {
		return fmt.Errorf("debug.artifact_dir: %w", err)
	}
	c.DebugCfg.ArtifactDir = artifactDir
	return nil
}

func (c *Config) secrets() []string {
	var out []string
	for _, s := range []string{c.AuthCfg.Username, c.AuthCfg.Password} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	var missing []string
	if c.AuthCfg.Username == "" {
		missing = append(missing, EnvPrefix+"_USERNAME")
	}
	if c.AuthCfg.Password == "" {
		missing = append(missing, EnvPrefix+"_PASSWORD")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	required := []struct{ key, val string }{
		{"auth.login_url", c.AuthCfg.LoginURL},
		{"feed.url", c.FeedCfg.URL},
		{"target.landing_url", c.TargetCfg.LandingURL},
		{"link.direct_url", c.LinkCfg.DirectURL},
		{"target.editor_selector", c.TargetCfg.EditorSelector},
		{"editor.video_url_selector", c.EditorCfg.VideoURLSelector},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return &ConfigurationError{Reason: r.key + " must not be empty"}
		}
	}
	if c.BrowserCfg.PageLoadTimeout <= 0 || c.BrowserCfg.DefaultTimeout <= 0 {
		return &ConfigurationError{Reason: "browser timeouts must be positive durations"}
	}
	if c.NavigationCfg.Retries < 0 || c.LinkCfg.Retries < 0 {
		return &ConfigurationError{Reason: "retry counts must not be negative"}
	}
	if len(c.LinkCfg.SectionMarkers) == 0 {
		return &ConfigurationError{Reason: "link.section_markers requires at least one marker"}
	}
	if c.EditorCfg.VideoWidth <= 0 || c.EditorCfg.VideoHeight <= 0 {
		return &ConfigurationError{Reason: "editor video dimensions must be positive"}
	}
	if c.EditorCfg.VideoButtonIndex != nil && *c.EditorCfg.VideoButtonIndex < 0 {
		return &ConfigurationError{Reason: "editor.video_button_index must not be negative"}
	}
	if c.TargetCfg.Day < 0 || c.TargetCfg.Day > 31 {
		return &ConfigurationError{Reason: "target.day must be between 1 and 31 (0 selects today)"}
	}
	return nil
}

// ConfigurationError reports required configuration that is missing or invalid.
// It is always fatal and is raised before any browser is started.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return "invalid configuration: " + e.Reason
}
