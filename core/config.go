package core

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"

	defaultSecretKey = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"
	minSecretKeyLen  = 32
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	SessionConfig struct {
		CookieName   string
		TTL          time.Duration
		SecureCookie bool
	}

	DatabaseConfig struct {
		Engine        string // postgres (lib/pq), pgx or memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Timezone      string
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	// Config is built once at startup and handed to every component that needs it.
	// It must not be mutated after NewConfig returns.
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string
		WorkDir  string

		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Session  SessionConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}
)

// NewConfig reads the configuration of the current ENV (DEV by default) from the environment
// and the optional config/.env.<env> file.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = EnvDev
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "os.Getwd")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "godotenv.Load(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "os.Stat(%s)", dotEnvPath)
	}

	v := viper.New()
	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf, err := fromViper(v, env)
	if err != nil {
		return nil, err
	}
	conf.WorkDir = wd
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == EnvDev || env == EnvTest)
	v.SetDefault("testMode", env == EnvTest)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Shule")
	v.SetDefault("secretKey", defaultSecretKey)
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Shule <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("session.cookieName", "auth-token")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.secureCookie", env != EnvDev && env != EnvTest)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "shule")
	v.SetDefault("database.user", "shule")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == EnvDev || env == EnvTest)
	v.SetDefault("database.timezone", "UTC")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func fromViper(v *viper.Viper, env string) (*Config, error) {
	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}
	return &Config{
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail:          *from,
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Session: SessionConfig{
			CookieName:   v.GetString("session.cookieName"),
			TTL:          v.GetDuration("session.ttl"),
			SecureCookie: v.GetBool("session.secureCookie"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Timezone:      v.GetString("database.timezone"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}, nil
}

// Validate refuses configurations that cannot run safely.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("config: secretKey is required")
	}
	if c.Env != EnvDev && c.Env != EnvTest {
		if c.SecretKey == defaultSecretKey || len(c.SecretKey) < minSecretKeyLen {
			return errors.Errorf("config: a secretKey of at least %d characters must be set in %s", minSecretKeyLen, c.Env)
		}
	}
	if c.Session.CookieName == "" {
		return errors.New("config: session.cookieName is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	switch c.Database.Engine {
	case "postgres", "pgx", "memory":
	default:
		return errors.Errorf("config: unknown database.engine %q", c.Database.Engine)
	}
	return nil
}

// Address returns the postgres host:port.
func (d DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// URL builds the connection url of the application database user.
func (d DatabaseConfig) URL() string {
	return d.url(d.User, d.Password, d.Name)
}

// AdminURL builds the connection url of the database administrator, connected to the `postgres` db.
func (d DatabaseConfig) AdminURL() string {
	return d.url(d.AdminUser, d.AdminPassword, "postgres")
}

func (d DatabaseConfig) url(usr, pwd, dbName string) string {
	sslMode := "require"
	if d.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", d.Timezone)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(usr, pwd),
		Host:     d.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}
