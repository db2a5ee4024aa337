package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	cfg *Config
	mu  sync.RWMutex
)

// Config represents the harness configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Users     UsersConfig     `mapstructure:"users"`
	Env       EnvFlags        `mapstructure:"env"`
	Poll      PollConfig      `mapstructure:"poll"`
	Snapshots SnapshotConfig  `mapstructure:"snapshots"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Fixtures  FixturesConfig  `mapstructure:"fixtures"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
}

type AppConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Autodetect     bool          `mapstructure:"autodetect"`
	Debug          bool          `mapstructure:"debug"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	SlowMo         time.Duration `mapstructure:"slow_mo"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	Screenshots    bool          `mapstructure:"screenshots"`
	Videos         bool          `mapstructure:"videos"`
	ResultsDir     string        `mapstructure:"results_dir"`
	Preinstalled   bool          `mapstructure:"preinstalled"`
}

type UsersConfig struct {
	RootUser      string `mapstructure:"root_user"`
	AdminUser     string `mapstructure:"admin_user"`
	Password      string `mapstructure:"password"`
	ProxyPassword string `mapstructure:"proxy_password"`
}

// EnvFlags mirror the per-environment switches that alter login and
// console behavior.
type EnvFlags struct {
	ProxyUser             string `mapstructure:"proxy_user"`
	OAuthMode             bool   `mapstructure:"oauth_mode"`
	DisabledUILogin       bool   `mapstructure:"disabled_ui_login"`
	IgnoreConsoleWarnings bool   `mapstructure:"ignore_console_warnings"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SnapshotConfig struct {
	BaselineDir          string  `mapstructure:"baseline_dir"`
	DiffDir              string  `mapstructure:"diff_dir"`
	Threshold            float64 `mapstructure:"threshold"`
	FailureThreshold     float64 `mapstructure:"failure_threshold"`
	FailureThresholdType string  `mapstructure:"failure_threshold_type"`
	Update               bool    `mapstructure:"update"`
}

type AuditConfig struct {
	AxeScript        string             `mapstructure:"axe_script"`
	AxeURL           string             `mapstructure:"axe_url"`
	FailImpacts      []string           `mapstructure:"fail_impacts"`
	LighthouseBinary string             `mapstructure:"lighthouse_binary"`
	LighthouseScores map[string]float64 `mapstructure:"lighthouse_scores"`
}

type DatabaseConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Name     string   `mapstructure:"name"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
	SSLMode  string   `mapstructure:"ssl_mode"`
	Tables   []string `mapstructure:"tables"`
	Preserve []string `mapstructure:"preserve"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type FixturesConfig struct {
	Dir         string `mapstructure:"dir"`
	DownloadDir string `mapstructure:"download_dir"`
}

type SelectorsConfig struct {
	PaginatorNext string `mapstructure:"paginator_next"`
	TotalRows     string `mapstructure:"total_rows"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.request_timeout", 30*time.Second)
	v.SetDefault("app.autodetect", false)
	v.SetDefault("app.debug", false)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.timeout", 30*time.Second)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 1280)
	v.SetDefault("browser.screenshots", true)
	v.SetDefault("browser.videos", false)
	v.SetDefault("browser.results_dir", "./test-results")
	v.SetDefault("browser.preinstalled", false)

	v.SetDefault("users.root_user", "root@skills.org")
	v.SetDefault("users.admin_user", "skills@skills.org")
	v.SetDefault("users.password", "password")
	v.SetDefault("users.proxy_password", "password")

	v.SetDefault("env.proxy_user", "user0")
	v.SetDefault("env.oauth_mode", false)
	v.SetDefault("env.disabled_ui_login", false)
	v.SetDefault("env.ignore_console_warnings", false)

	v.SetDefault("poll.interval", 100*time.Millisecond)
	v.SetDefault("poll.timeout", 4*time.Second)

	v.SetDefault("snapshots.baseline_dir", "./tests/e2e/snapshots")
	v.SetDefault("snapshots.diff_dir", "./test-results/snapshot-diffs")
	v.SetDefault("snapshots.threshold", 0.1)
	v.SetDefault("snapshots.failure_threshold", 0.01)
	v.SetDefault("snapshots.failure_threshold_type", "percent")
	v.SetDefault("snapshots.update", false)

	v.SetDefault("audit.axe_url", "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.8.2/axe.min.js")
	v.SetDefault("audit.fail_impacts", []string{"critical", "serious"})
	v.SetDefault("audit.lighthouse_binary", "lighthouse")
	v.SetDefault("audit.lighthouse_scores", map[string]float64{
		"performance":    0.9,
		"accessibility":  0.9,
		"best-practices": 0.9,
		"seo":            0.9,
	})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "skills")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "skillsPassword")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.tables", []string{
		"project_definition", "quiz_definition", "user_performed_skill",
		"user_points", "user_achievement", "skill_def", "skill_relationship_definition",
		"user_roles", "settings", "attachments",
	})
	v.SetDefault("database.preserve", []string{"user_roles"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("fixtures.dir", "./tests/e2e/fixtures")
	v.SetDefault("fixtures.download_dir", "./test-results/downloads")

	v.SetDefault("selectors.paginator_next", `[data-pc-name="pcnextpagebutton"]`)
	v.SetDefault("selectors.total_rows", `[data-cy="skillsBTableTotalRows"]`)
}

// Load reads the optional config file at path (yaml), applies
// SKILLTREE_E2E_* environment overrides and stores the result.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SKILLTREE_E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if next.App.Autodetect {
		next.App.BaseURL = detectReachableBaseURL(next.App.BaseURL)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	cfg = next
	mu.Unlock()
	return next, nil
}

// bindLegacyEnv maps the short variable names used by existing CI jobs.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.base_url", "SKILLTREE_E2E_APP_BASE_URL", "BASE_URL")
	_ = v.BindEnv("browser.headless", "SKILLTREE_E2E_BROWSER_HEADLESS", "HEADLESS")
	_ = v.BindEnv("env.proxy_user", "SKILLTREE_E2E_ENV_PROXY_USER", "proxyUser")
	_ = v.BindEnv("env.oauth_mode", "SKILLTREE_E2E_ENV_OAUTH_MODE", "oauthMode")
	_ = v.BindEnv("env.disabled_ui_login", "SKILLTREE_E2E_ENV_DISABLED_UI_LOGIN", "disabledUILoginProp")
	_ = v.BindEnv("env.ignore_console_warnings", "SKILLTREE_E2E_ENV_IGNORE_CONSOLE_WARNINGS", "ignoreConsoleWarnings")
}

// Get returns the last loaded configuration, loading defaults on first use.
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	loaded, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return loaded
}

// Validate checks values that would otherwise fail far from their source.
func (c *Config) Validate() error {
	if c.App.BaseURL == "" {
		return fmt.Errorf("app.base_url must not be empty")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.Timeout < c.Poll.Interval {
		return fmt.Errorf("poll.timeout (%s) must not be shorter than poll.interval (%s)", c.Poll.Timeout, c.Poll.Interval)
	}
	switch c.Snapshots.FailureThresholdType {
	case "pixel", "percent":
	default:
		return fmt.Errorf("snapshots.failure_threshold_type must be pixel or percent, got %q", c.Snapshots.FailureThresholdType)
	}
	if c.Snapshots.Threshold < 0 || c.Snapshots.Threshold > 1 {
		return fmt.Errorf("snapshots.threshold must be within [0,1]")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ClientDisplayURL returns the client-display root for a project.
func (c *AppConfig) ClientDisplayURL(projectID string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/progress-and-rankings/projects/" + projectID
}

// UseAPILogin reports whether sessions must be established through the
// API because the UI login form is unavailable.
func (e EnvFlags) UseAPILogin() bool {
	return e.OAuthMode || e.DisabledUILogin
}
