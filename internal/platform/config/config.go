package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHealthAddr      = ":50051"
	defaultBodyLimit       = 20 << 20
	defaultShutdownTimeout = 10 * time.Second
	defaultStorageRoot     = "public/uploads"
	defaultStoragePrefix   = "/uploads"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultApplicationName = "hr-server"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は HTTP サーバーとヘルスチェック用 gRPC サーバーの設定です。
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	HealthAddr         string        `yaml:"health_addr"`
	BodyLimit          int           `yaml:"body_limit"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	ApplicationName    string        `yaml:"application_name"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// StorageConfig は添付ファイルの保存先です。
type StorageConfig struct {
	Root      string `yaml:"root"`
	URLPrefix string `yaml:"url_prefix"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load は指定されたパスから設定ファイルを読み込みます。${VAR} 形式の参照は環境変数で展開されます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	c.Storage.normalize()
	return c.Log.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if _, _, err := net.SplitHostPort(s.ListenAddr); err != nil {
		return fmt.Errorf("config: server.listen_addr: %w", err)
	}
	if s.HealthAddr == "" {
		s.HealthAddr = defaultHealthAddr
	}
	if s.HealthAddr == s.ListenAddr {
		return fmt.Errorf("config: server.health_addr must differ from server.listen_addr")
	}
	if s.BodyLimit < 0 {
		return fmt.Errorf("config: server.body_limit must not be negative")
	}
	if s.BodyLimit == 0 {
		s.BodyLimit = defaultBodyLimit
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	s.ShutdownTimeout = timeout

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.ApplicationName == "" {
		d.ApplicationName = defaultApplicationName
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (s *StorageConfig) normalize() {
	if strings.TrimSpace(s.Root) == "" {
		s.Root = defaultStorageRoot
	}
	prefix := strings.Trim(s.URLPrefix, "/")
	if prefix == "" {
		s.URLPrefix = defaultStoragePrefix
		return
	}
	s.URLPrefix = "/" + prefix
}

func (l *LogConfig) validateAndNormalize() error {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
		l.Format = strings.ToLower(l.Format)
	default:
		return fmt.Errorf("config: log.format must be json or text, got %q", l.Format)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx と golang-migrate で共用する接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
