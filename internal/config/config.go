package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"portal_gateway/internal/domainutil"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Tenant lookup sources
const (
	TenantSourceStatic = "static"
	TenantSourceDB     = "db"
	TenantSourceAPI    = "api"
)

// Session validation modes
const (
	SessionModePresence = "presence"
	SessionModeJWT      = "jwt"
)

// Config holds all configuration
type Config struct {
	AppEnv   string
	HTTPAddr string
	Log      LogConfig
	Upstream UpstreamConfig
	Router   RouterConfig
	Locale   LocaleConfig
	Session  SessionConfig
	Tenant   TenantConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Migrate  bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig holds the renderer and backend addresses
type UpstreamConfig struct {
	Render    string
	API       string
	APIPrefix string
	TimeoutMs int
}

// RouterConfig holds the page router tables
type RouterConfig struct {
	ProtectedPaths  []string
	AuthPages       []string
	LoginPath       string
	Templates       []string
	DefaultTemplate string
	TemplateCookie  string
	TemplateHeader  string
	TemplateParam   string
	SkipPrefixes    []string
}

// LocaleConfig holds locale negotiation settings
type LocaleConfig struct {
	Locales   []string
	Default   string
	Detection bool
	Cookie    string
}

// SessionConfig holds auth cookie settings
type SessionConfig struct {
	Cookie        string
	Mode          string
	MaxAgeMinutes int
	JWTSecret     string
	JWTIssuer     string
}

// TenantConfig holds host-to-template lookup settings
type TenantConfig struct {
	Source          string
	HostTemplates   map[string]string
	LookupTimeoutMs int
	CacheTTLSec     int
	MerchantAPI     MerchantAPIConfig
}

// MerchantAPIConfig holds the merchant configuration service client settings
type MerchantAPIConfig struct {
	URL       string
	Token     string
	TimeoutMs int
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IsProduction reports whether the gateway runs with production cookie flags
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LookupTimeout returns the per-request tenant lookup budget
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Tenant.LookupTimeoutMs) * time.Millisecond
}

// UpstreamTimeout bounds the wait for renderer and backend responses
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutMs) * time.Millisecond
}

// SessionMaxAge returns the default auth cookie lifetime
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.Session.MaxAgeMinutes) * time.Minute
}

// CacheTTL returns the tenant cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Tenant.CacheTTLSec) * time.Second
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return load(source{})
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	_ = godotenv.Load()

	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	return load(source{file: cfgFile})
}

// source resolves a value with priority: ENV > INI > default
type source struct {
	file *ini.File
}

func (s source) get(envKey, iniSection, iniKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if s.file != nil {
		if value := s.file.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
	}
	return defaultValue
}

func (s source) getInt(envKey, iniSection, iniKey string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	if s.file != nil && s.file.Section(iniSection).HasKey(iniKey) {
		if value, err := s.file.Section(iniSection).Key(iniKey).Int(); err == nil {
			return value
		}
	}
	return defaultValue
}

func (s source) getBool(envKey, iniSection, iniKey string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		return value == "1" || value == "true"
	}
	if s.file != nil && s.file.Section(iniSection).HasKey(iniKey) {
		if value, err := s.file.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
	}
	return defaultValue
}

func (s source) getList(envKey, iniSection, iniKey, defaultValue string) []string {
	return splitList(s.get(envKey, iniSection, iniKey, defaultValue))
}

// getHostTemplates reads HOST_TEMPLATES ("host=tpl,host=tpl") or, when unset,
// every key of the [host_templates] INI section.
func (s source) getHostTemplates(defaultValue string) (map[string]string, error) {
	if value := os.Getenv("HOST_TEMPLATES"); value != "" {
		return parsePairs(value)
	}
	if s.file != nil {
		if section, err := s.file.GetSection("host_templates"); err == nil {
			table := make(map[string]string, len(section.Keys()))
			for _, key := range section.Keys() {
				host := strings.ToLower(strings.TrimSpace(key.Name()))
				tpl := strings.TrimSpace(key.String())
				if host == "" || tpl == "" {
					return nil, fmt.Errorf("invalid host_templates entry %q", key.Name())
				}
				table[host] = tpl
			}
			return table, nil
		}
	}
	return parsePairs(defaultValue)
}

func load(s source) (*Config, error) {
	hostTemplates, err := s.getHostTemplates("marerex.com=enterprise,junyos.com=default")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:   s.get("APP_ENV", "app", "env", "development"),
		HTTPAddr: s.get("HTTP_ADDR", "http", "addr", ":3000"),
		Log: LogConfig{
			Level:  s.get("LOG_LEVEL", "log", "level", "info"),
			Format: s.get("LOG_FORMAT", "log", "format", ""),
		},
		Upstream: UpstreamConfig{
			Render:    s.get("RENDER_UPSTREAM", "upstream", "render", "http://127.0.0.1:3001"),
			API:       s.get("API_UPSTREAM", "upstream", "api", ""),
			APIPrefix: s.get("API_PREFIX", "upstream", "api_prefix", "/api"),
			TimeoutMs: s.getInt("UPSTREAM_TIMEOUT_MS", "upstream", "timeout_ms", 30000),
		},
		Router: RouterConfig{
			ProtectedPaths:  s.getList("PROTECTED_PATHS", "router", "protected_paths", "/list"),
			AuthPages:       s.getList("AUTH_PAGES", "router", "auth_pages", "/login,/register"),
			LoginPath:       s.get("LOGIN_PATH", "router", "login_path", "/login"),
			Templates:       s.getList("TEMPLATES", "router", "templates", "default,enterprise"),
			DefaultTemplate: s.get("DEFAULT_TEMPLATE", "router", "default_template", "default"),
			TemplateCookie:  s.get("TEMPLATE_COOKIE", "router", "template_cookie", "template"),
			TemplateHeader:  s.get("TEMPLATE_HEADER", "router", "template_header", "x-template"),
			TemplateParam:   s.get("TEMPLATE_PARAM", "router", "template_param", "template"),
			SkipPrefixes:    s.getList("SKIP_PREFIXES", "router", "skip_prefixes", "/api,/_next,/_vercel"),
		},
		Locale: LocaleConfig{
			Locales:   s.getList("LOCALES", "locale", "locales", "en,zh"),
			Default:   s.get("DEFAULT_LOCALE", "locale", "default", "en"),
			Detection: s.getBool("LOCALE_DETECTION", "locale", "detection", false),
			Cookie:    s.get("LOCALE_COOKIE", "locale", "cookie", "NEXT_LOCALE"),
		},
		Session: SessionConfig{
			Cookie:        s.get("SESSION_COOKIE", "session", "cookie", "auth_token"),
			Mode:          s.get("SESSION_MODE", "session", "mode", SessionModePresence),
			MaxAgeMinutes: s.getInt("SESSION_MAX_AGE_MINUTES", "session", "max_age_minutes", 7*24*60),
			JWTSecret:     s.get("JWT_SECRET", "jwt", "secret", ""),
			JWTIssuer:     s.get("JWT_ISSUER", "jwt", "issuer", ""),
		},
		Tenant: TenantConfig{
			Source:          s.get("TENANT_SOURCE", "tenant", "source", TenantSourceStatic),
			HostTemplates:   hostTemplates,
			LookupTimeoutMs: s.getInt("TENANT_LOOKUP_TIMEOUT_MS", "tenant", "lookup_timeout_ms", 300),
			CacheTTLSec:     s.getInt("TENANT_CACHE_TTL_SEC", "tenant", "cache_ttl_sec", 300),
			MerchantAPI: MerchantAPIConfig{
				URL:       s.get("MERCHANT_API_URL", "merchant_api", "url", ""),
				Token:     s.get("MERCHANT_API_TOKEN", "merchant_api", "token", ""),
				TimeoutMs: s.getInt("MERCHANT_API_TIMEOUT_MS", "merchant_api", "timeout_ms", 3000),
			},
		},
		MySQL: MySQLConfig{
			DSN: s.get("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     s.get("REDIS_ADDR", "redis", "addr", ""),
			Password: s.get("REDIS_PASS", "redis", "pass", ""),
			DB:       s.getInt("REDIS_DB", "redis", "db", 0),
		},
		Migrate: s.getBool("MIGRATE", "app", "migrate", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Upstream.Render == "" {
		return fmt.Errorf("RENDER_UPSTREAM is required")
	}
	if _, err := url.ParseRequestURI(c.Upstream.Render); err != nil {
		return fmt.Errorf("RENDER_UPSTREAM is invalid: %w", err)
	}
	if c.Upstream.API != "" {
		if _, err := url.ParseRequestURI(c.Upstream.API); err != nil {
			return fmt.Errorf("API_UPSTREAM is invalid: %w", err)
		}
		if !strings.HasPrefix(c.Upstream.APIPrefix, "/") {
			return fmt.Errorf("API_PREFIX must start with /")
		}
	}

	if len(c.Locale.Locales) == 0 {
		return fmt.Errorf("LOCALES must not be empty")
	}
	if !contains(c.Locale.Locales, c.Locale.Default) {
		return fmt.Errorf("DEFAULT_LOCALE %q is not in LOCALES", c.Locale.Default)
	}

	if len(c.Router.Templates) == 0 {
		return fmt.Errorf("TEMPLATES must not be empty")
	}
	if !contains(c.Router.Templates, c.Router.DefaultTemplate) {
		return fmt.Errorf("DEFAULT_TEMPLATE %q is not in TEMPLATES", c.Router.DefaultTemplate)
	}
	for host, tpl := range c.Tenant.HostTemplates {
		if _, err := domainutil.ValidatePattern(host); err != nil {
			return fmt.Errorf("HOST_TEMPLATES has invalid host pattern: %w", err)
		}
		if !contains(c.Router.Templates, tpl) {
			return fmt.Errorf("HOST_TEMPLATES maps %s to unknown template %q", host, tpl)
		}
	}
	if !strings.HasPrefix(c.Router.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must start with /")
	}

	switch c.Session.Mode {
	case SessionModePresence:
	case SessionModeJWT:
		if c.Session.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when SESSION_MODE=jwt")
		}
	default:
		return fmt.Errorf("unknown SESSION_MODE %q", c.Session.Mode)
	}

	switch c.Tenant.Source {
	case TenantSourceStatic:
	case TenantSourceDB:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when TENANT_SOURCE=db")
		}
	case TenantSourceAPI:
		if c.Tenant.MerchantAPI.URL == "" {
			return fmt.Errorf("MERCHANT_API_URL is required when TENANT_SOURCE=api")
		}
	default:
		return fmt.Errorf("unknown TENANT_SOURCE %q", c.Tenant.Source)
	}

	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePairs(value string) (map[string]string, error) {
	table := make(map[string]string)
	for _, pair := range splitList(value) {
		host, tpl, ok := strings.Cut(pair, "=")
		host = strings.ToLower(strings.TrimSpace(host))
		tpl = strings.TrimSpace(tpl)
		if !ok || host == "" || tpl == "" {
			return nil, fmt.Errorf("invalid HOST_TEMPLATES entry %q", pair)
		}
		table[host] = tpl
	}
	return table, nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
