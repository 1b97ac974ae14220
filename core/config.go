package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string        `mapstructure:"address"`
		DebugAddress    string        `mapstructure:"debugaddress"`
		ReadTimeout     time.Duration `mapstructure:"readtimeout"`
		WriteTimeout    time.Duration `mapstructure:"writetimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdowntimeout"`
		DisableReqLogs  bool          `mapstructure:"disablereqlogs"`
	}

	// BackendConfig points the dashboard at the REST backend.
	// Driver "inmem" swaps it for the in-memory demo backend.
	BackendConfig struct {
		Driver  string        `mapstructure:"driver"`
		BaseURL string        `mapstructure:"baseurl"`
		Timeout time.Duration `mapstructure:"timeout"`
	}

	SessionConfig struct {
		Store         string        `mapstructure:"store"`
		CookieName    string        `mapstructure:"cookiename"`
		SecureCookie  bool          `mapstructure:"securecookie"`
		MaxAge        time.Duration `mapstructure:"maxage"`
		RedisAddr     string        `mapstructure:"redisaddr"`
		RedisPassword string        `mapstructure:"redispassword"`
		RedisDB       int           `mapstructure:"redisdb"`
	}

	UIConfig struct {
		BannerTTL   time.Duration `mapstructure:"bannerttl"`
		TaskPreview int           `mapstructure:"taskpreview"`
		RankingTopN int           `mapstructure:"rankingtopn"`
	}

	LogConfig struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"maxsizemb"`
		MaxBackups int    `mapstructure:"maxbackups"`
	}

	RateLimitConfig struct {
		LoginRPS   float64 `mapstructure:"loginrps"`
		LoginBurst int     `mapstructure:"loginburst"`
	}

	Config struct {
		Env          string          `mapstructure:"-"`
		Debug        bool            `mapstructure:"debug"`
		TestMode     bool            `mapstructure:"testmode"`
		AppName      string          `mapstructure:"appname"`
		Build        string          `mapstructure:"build"`
		RollbarToken string          `mapstructure:"rollbartoken"`
		Server       ServerConfig    `mapstructure:"server"`
		Backend      BackendConfig   `mapstructure:"backend"`
		Session      SessionConfig   `mapstructure:"session"`
		UI           UIConfig        `mapstructure:"ui"`
		Log          LogConfig       `mapstructure:"log"`
		RateLimit    RateLimitConfig `mapstructure:"ratelimit"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testmode", false)
	v.SetDefault("appname", "Classboard")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbartoken", "")

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debugaddress", ":3010")
	v.SetDefault("server.readtimeout", 5*time.Second)
	v.SetDefault("server.writetimeout", 10*time.Second)
	v.SetDefault("server.shutdowntimeout", 5*time.Second)
	v.SetDefault("server.disablereqlogs", false)

	v.SetDefault("backend.driver", "rest")
	v.SetDefault("backend.baseurl", "http://localhost:8000")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("session.store", "inmem")
	v.SetDefault("session.cookiename", "classboard_session")
	v.SetDefault("session.securecookie", false)
	v.SetDefault("session.maxage", 12*time.Hour)
	v.SetDefault("session.redisaddr", "localhost:6379")
	v.SetDefault("session.redispassword", "")
	v.SetDefault("session.redisdb", 0)

	v.SetDefault("ui.bannerttl", 3*time.Second)
	v.SetDefault("ui.taskpreview", 3)
	v.SetDefault("ui.rankingtopn", 3)

	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 50)
	v.SetDefault("log.maxbackups", 3)

	v.SetDefault("ratelimit.loginrps", 1.0)
	v.SetDefault("ratelimit.loginburst", 5)
}

// NewConfig reads the configuration from defaults, config/.env.<env> (if present)
// and CLASSBOARD_* environment variables, in increasing priority.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testmode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix("CLASSBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.Backend.BaseURL = strings.TrimRight(conf.Backend.BaseURL, "/")
	return conf
}

// NewTestConfig returns the default configuration in test mode, without reading the environment.
func NewTestConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.Set("testmode", true)
	v.Set("backend.driver", "inmem")
	v.Set("server.disablereqlogs", true)

	conf := new(Config)
	_ = v.Unmarshal(conf)
	conf.Env = "TEST"
	return conf
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
