package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/tiebasign/internal/model"
)

// AppName is the application name used for XDG directory paths.
const AppName = "tiebasign"

// Environment variables read by LoadEnv.
const (
	EnvUsername     = "TIEBA_USERNAME"
	EnvPassword     = "TIEBA_PASSWORD"
	EnvSMTPPassword = "TIEBA_SMTP_PASSWORD"
)

// Default endpoint URLs of the passport and forum services.
const (
	DefaultLoginPageURL  = "https://passport.baidu.com/v2/api/?login"
	DefaultLoginTokenURL = "https://passport.baidu.com/v2/api/?getapi&tpl=mn&apiver=v3&class=login"
	DefaultLoginURL      = "https://passport.baidu.com/v2/api/?login"
	DefaultForumListURL  = "https://tieba.baidu.com/f/like/mylike"
	DefaultTBSURL        = "http://tieba.baidu.com/dc/common/tbs"
	DefaultSignURL       = "http://tieba.baidu.com/sign/add"
)

// Default configuration values.
const (
	// DefaultUserAgent is a desktop Chrome user agent. The passport service
	// rejects obviously scripted clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultReferer is sent with every request.
	DefaultReferer = "https://tieba.baidu.com/"

	// DefaultTimeout bounds each HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultMinDelay and DefaultMaxDelay bound the random pause after each
	// successful check-in.
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second

	// DefaultMaxForumPages limits how many pages of the followed-forum list
	// are read. The list shows 20 forums per page.
	DefaultMaxForumPages = 50

	// DefaultDetailFile and DefaultSummaryFile are written to OutputDir.
	DefaultDetailFile  = "sign_results.json"
	DefaultSummaryFile = "summary.json"

	// DefaultSMTPPort is the submission port.
	DefaultSMTPPort = 587
)

// Endpoints holds the URLs of the six remote exchanges.
type Endpoints struct {
	// LoginPage is fetched first so the passport service sets its cookies.
	LoginPage string `yaml:"loginPage,omitempty" validate:"required,url"`

	// LoginToken returns the token that authorizes the login form.
	LoginToken string `yaml:"loginToken,omitempty" validate:"required,url"`

	// Login receives the login form.
	Login string `yaml:"login,omitempty" validate:"required,url"`

	// ForumList is the first page of the followed-forum list.
	ForumList string `yaml:"forumList,omitempty" validate:"required,url"`

	// TBS returns the anti-forgery token required by Sign.
	TBS string `yaml:"tbs,omitempty" validate:"required,url"`

	// Sign receives one check-in.
	Sign string `yaml:"sign,omitempty" validate:"required,url"`
}

// DefaultEndpoints returns the production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		LoginPage:  DefaultLoginPageURL,
		LoginToken: DefaultLoginTokenURL,
		Login:      DefaultLoginURL,
		ForumList:  DefaultForumListURL,
		TBS:        DefaultTBSURL,
		Sign:       DefaultSignURL,
	}
}

// Notify configures the optional e-mail sent after a run.
type Notify struct {
	// SMTPHost enables notification when set together with To.
	SMTPHost string `yaml:"smtpHost,omitempty" validate:"omitempty,hostname|ip"`

	// SMTPPort defaults to 587.
	SMTPPort int `yaml:"smtpPort,omitempty" validate:"omitempty,min=1,max=65535"`

	// Username is the SMTP login. Empty disables authentication.
	Username string `yaml:"username,omitempty"`

	// Password is read from TIEBA_SMTP_PASSWORD, never from the file.
	Password string `yaml:"-"`

	// From is the sender address.
	From string `yaml:"from,omitempty" validate:"omitempty,email"`

	// To lists the recipients.
	To []string `yaml:"to,omitempty" validate:"omitempty,dive,email"`

	// OnlyOnFailure skips the mail when every forum was signed.
	OnlyOnFailure bool `yaml:"onlyOnFailure,omitempty"`
}

// Enabled reports whether a notification should be attempted.
func (n Notify) Enabled() bool {
	return n.SMTPHost != "" && len(n.To) > 0
}

// Config holds every option of a sign run.
// It is assembled from defaults, the configuration file, the environment
// and CLI flags, in that order, and then passed down explicitly.
type Config struct {
	// Credentials come from TIEBA_USERNAME and TIEBA_PASSWORD.
	Credentials model.Credentials

	// Endpoints are the remote URLs. Tests point them at an httptest server.
	Endpoints Endpoints

	// UserAgent and Referer are sent with every request.
	UserAgent string
	Referer   string

	// Headers are extra request headers.
	Headers map[string]string

	// Timeout bounds each HTTP exchange.
	Timeout time.Duration

	// MinDelay and MaxDelay bound the random pause after each check-in.
	// A MaxDelay of zero disables the pause.
	MinDelay time.Duration
	MaxDelay time.Duration

	// MaxForumPages limits pagination of the followed-forum list.
	MaxForumPages int

	// Proxy is an optional http, https or socks5 proxy URL.
	Proxy string

	// OutputDir receives DetailFile, SummaryFile and, when relative,
	// MarkdownFile and MetricsFile.
	OutputDir string

	// DetailFile and SummaryFile are the two JSON reports.
	DetailFile  string
	SummaryFile string

	// MarkdownFile enables a markdown summary when set. Under GitHub
	// Actions the CLI appends to $GITHUB_STEP_SUMMARY instead when this is
	// empty.
	MarkdownFile string

	// MetricsFile enables a Prometheus textfile when set.
	MetricsFile string

	// SaveToDB stores the run in the history database under DBDir.
	SaveToDB bool

	// DBDir defaults to the XDG data directory.
	DBDir string

	// Notify configures the e-mail notification.
	Notify Notify

	// FailOnError makes the CLI exit non-zero when the run or any forum
	// failed. By default a run always exits zero, like a cron job that
	// reports through its output files.
	FailOnError bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// ConfigFilePath is the configuration file that was loaded, if any.
	ConfigFilePath string
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Endpoints:     DefaultEndpoints(),
		UserAgent:     DefaultUserAgent,
		Referer:       DefaultReferer,
		Headers:       map[string]string{},
		Timeout:       DefaultTimeout,
		MinDelay:      DefaultMinDelay,
		MaxDelay:      DefaultMaxDelay,
		MaxForumPages: DefaultMaxForumPages,
		OutputDir:     ".",
		DetailFile:    DefaultDetailFile,
		SummaryFile:   DefaultSummaryFile,
		SaveToDB:      true,
		DBDir:         XDGDataDir(),
		Notify:        Notify{SMTPPort: DefaultSMTPPort},
	}
}

// LoadEnv reads the credentials and the SMTP password using getenv.
// Values already set are kept when the variable is empty.
func (c *Config) LoadEnv(getenv func(string) string) {
	if v := getenv(EnvUsername); v != "" {
		c.Credentials.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Credentials.Password = v
	}
	if v := getenv(EnvSMTPPassword); v != "" {
		c.Notify.Password = v
	}
}

// OutputPath resolves name against OutputDir. Absolute names are kept.
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/tiebasign.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/tiebasign.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
