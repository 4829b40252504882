package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		SecretKey           string
		SuperadminSecret    string
		DefaultUserPassword string
		FrontendBaseURL     string

		DefaultFromEmail          mail.Address
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server    ServerConfig
		Database  DatabaseConfig
		Twilio    TwilioConfig
		Translate TranslateConfig
		Notify    NotifyConfig
	}

	ServerConfig struct {
		Host               string
		Port               string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool
	}

	TwilioConfig struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}

	TranslateConfig struct {
		APIKey  string
		APIHost string
		APIURL  string
	}

	NotifyConfig struct {
		Workers                 int
		QueueSize               int
		FallbackOnProviderError bool
	}
)

func (c ServerConfig) Addr() string     { return c.Host + ":" + c.Port }
func (c DatabaseConfig) Addr() string   { return c.Host + ":" + c.Port }
func (c TwilioConfig) Enabled() bool    { return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != "" }
func (c TranslateConfig) Enabled() bool { return c.APIKey != "" }

// NewConfig loads configuration from defaults, an optional per-ENV dotenv file
// and the environment. ENV is one of DEV (default), TEST, QA, PROD.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "SchoolSystem")
	v.SetDefault("secretKey", "w#8beta)d$v5yg+a5b(@20ezjt^0d&q!jta7u%0-kv&m^_9=pc")
	v.SetDefault("superadminSecret", "")
	v.SetDefault("defaultUserPassword", "Pass@123")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 20*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "schoolsystem")
	v.SetDefault("database.user", "schoolsystem")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTls", true)

	v.SetDefault("twilio.accountSid", "")
	v.SetDefault("twilio.authToken", "")
	v.SetDefault("twilio.fromNumber", "")

	v.SetDefault("translate.apiKey", "")
	v.SetDefault("translate.apiHost", "deep-translate1.p.rapidapi.com")
	v.SetDefault("translate.apiUrl", "https://deep-translate1.p.rapidapi.com/language/translate/v2")

	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.queueSize", 64)
	v.SetDefault("notify.fallbackOnProviderError", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load config/.env.<env> if it exists
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Debug:               v.GetBool("debug"),
		TestMode:            env == "TEST",
		Env:                 env,
		Build:               v.GetString("build"),
		AppName:             v.GetString("appName"),
		SecretKey:           v.GetString("secretKey"),
		SuperadminSecret:    v.GetString("superadminSecret"),
		DefaultUserPassword: v.GetString("defaultUserPassword"),
		FrontendBaseURL:     v.GetString("frontendBaseUrl"),
		DefaultFromEmail:    mail.Address{Address: v.GetString("defaultFromEmail")},

		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetString("server.port"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			DisableTLS: v.GetBool("database.disableTls"),
		},
		Twilio: TwilioConfig{
			AccountSID: v.GetString("twilio.accountSid"),
			AuthToken:  v.GetString("twilio.authToken"),
			FromNumber: v.GetString("twilio.fromNumber"),
		},
		Translate: TranslateConfig{
			APIKey:  v.GetString("translate.apiKey"),
			APIHost: v.GetString("translate.apiHost"),
			APIURL:  v.GetString("translate.apiUrl"),
		},
		Notify: NotifyConfig{
			Workers:                 v.GetInt("notify.workers"),
			QueueSize:               v.GetInt("notify.queueSize"),
			FallbackOnProviderError: v.GetBool("notify.fallbackOnProviderError"),
		},
	}
	return conf
}
