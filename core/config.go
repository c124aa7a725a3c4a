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
		AppName         string
		Build           string
		Env             string // DEV (local; default), TEST, QA, PROD
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Email    EmailConfig
		Log      LogConfig
		Trace    TraceConfig
		AI       AIConfig

		RollbarToken string
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
		TTL      time.Duration
	}

	EmailConfig struct {
		DefaultFrom    mail.Address
		SendgridApiKey string
	}

	LogConfig struct {
		Level  string // debug, info, warn, error
		Format string // json, console
	}

	// TraceConfig controls the otel tracer provider. Finished spans are written to the log at debug level.
	TraceConfig struct {
		Enabled     bool
		SampleRatio float64 // 0..1, of root spans
	}

	// AIConfig locates the Python AI microservices and bounds how long the gateway waits on them.
	AIConfig struct {
		ExerciseURL  string
		ChatURL      string
		SentimentURL string

		HealthTimeout         time.Duration
		ChatTimeout           time.Duration
		ExerciseTimeout       time.Duration
		SentimentTimeout      time.Duration
		SearchTimeout         time.Duration
		SubjectsTimeout       time.Duration
		BatchSentimentTimeout time.Duration
		DefaultTimeout        time.Duration
	}
)

// Address returns "host:port" of the database server.
func (dbc DatabaseConfig) Address() string {
	if dbc.Port == "" {
		return dbc.Host
	}
	return dbc.Host + ":" + dbc.Port
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "SmartLearn")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "t8#kq1-z!v0w$dl2m@4e^jr7(na)x6bu+5hc=y3i9go&fps%")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "smartlearn")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("email.defaultFrom", "SmartLearn <noreply@localhost>")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("trace.enabled", true)
	v.SetDefault("trace.sampleRatio", 1.0)

	v.SetDefault("ai.exerciseUrl", "http://localhost:5001")
	v.SetDefault("ai.chatUrl", "http://localhost:5002")
	v.SetDefault("ai.sentimentUrl", "http://localhost:5003")
	v.SetDefault("ai.chatTimeoutMs", 300000)
	v.SetDefault("ai.exerciseTimeoutMs", 120000)
	v.SetDefault("ai.healthTimeout", 5*time.Second)
	v.SetDefault("ai.sentimentTimeout", 30*time.Second)
	v.SetDefault("ai.searchTimeout", 15*time.Second)
	v.SetDefault("ai.subjectsTimeout", 30*time.Second)
	v.SetDefault("ai.batchSentimentTimeout", 60*time.Second)
	v.SetDefault("ai.defaultTimeout", 60*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// the AI services keep the variable names shared with the Python services
	_ = v.BindEnv("ai.exerciseUrl", "EXERCISE_GEN_URL")
	_ = v.BindEnv("ai.chatUrl", "RAG_CHAT_URL")
	_ = v.BindEnv("ai.sentimentUrl", "SENTIMENT_URL")
	_ = v.BindEnv("ai.chatTimeoutMs", "AI_CHAT_TIMEOUT_MS")
	_ = v.BindEnv("ai.exerciseTimeoutMs", "AI_EXERCISE_TIMEOUT_MS")

	wd, _ := os.Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return newConfig(v, env, wd)
}

func newConfig(v *viper.Viper, env, wd string) *Config {
	from, err := mail.ParseAddress(v.GetString("email.defaultFrom"))
	if err != nil {
		from = &mail.Address{Address: v.GetString("email.defaultFrom")}
	}

	return &Config{
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		WorkDir:         wd,
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Email: EmailConfig{
			DefaultFrom:    *from,
			SendgridApiKey: v.GetString("email.sendgridApiKey"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Trace: TraceConfig{
			Enabled:     v.GetBool("trace.enabled"),
			SampleRatio: v.GetFloat64("trace.sampleRatio"),
		},
		AI: AIConfig{
			ExerciseURL:           strings.TrimRight(v.GetString("ai.exerciseUrl"), "/"),
			ChatURL:               strings.TrimRight(v.GetString("ai.chatUrl"), "/"),
			SentimentURL:          strings.TrimRight(v.GetString("ai.sentimentUrl"), "/"),
			HealthTimeout:         v.GetDuration("ai.healthTimeout"),
			ChatTimeout:           time.Duration(v.GetInt64("ai.chatTimeoutMs")) * time.Millisecond,
			ExerciseTimeout:       time.Duration(v.GetInt64("ai.exerciseTimeoutMs")) * time.Millisecond,
			SentimentTimeout:      v.GetDuration("ai.sentimentTimeout"),
			SearchTimeout:         v.GetDuration("ai.searchTimeout"),
			SubjectsTimeout:       v.GetDuration("ai.subjectsTimeout"),
			BatchSentimentTimeout: v.GetDuration("ai.batchSentimentTimeout"),
			DefaultTimeout:        v.GetDuration("ai.defaultTimeout"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: debug off and test mode on.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.Server.DisableReqLogs = true
	return conf
}
