package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string        `mapstructure:"host"`
		DebugHost                 string        `mapstructure:"debughost"`
		ShutdownTimeout           time.Duration `mapstructure:"shutdowntimeout"`
		JWTExpirationDelta        time.Duration `mapstructure:"jwtexpirationdelta"`
		JWTRefreshExpirationDelta time.Duration `mapstructure:"jwtrefreshexpirationdelta"`
		DisableReqLogs            bool          `mapstructure:"disablereqlogs"`
	}

	DatabaseConfig struct {
		Engine        string `mapstructure:"engine"` // postgres | sqlite | memory
		Host          string `mapstructure:"host"`
		Port          string `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		AdminUser     string `mapstructure:"adminuser"`
		AdminPassword string `mapstructure:"adminpassword"`
		DisableTLS    bool   `mapstructure:"disabletls"`
		Path          string `mapstructure:"path"` // sqlite file
	}

	AttendanceConfig struct {
		Timezone string `mapstructure:"timezone"`
	}

	Config struct {
		Env              string `mapstructure:"env"`
		Debug            bool   `mapstructure:"debug"`
		TestMode         bool   `mapstructure:"testmode"`
		AppName          string `mapstructure:"appname"`
		Build            string `mapstructure:"build"`
		SecretKey        string `mapstructure:"secretkey"`
		RollbarToken     string `mapstructure:"rollbartoken"`
		SendgridAPIKey   string `mapstructure:"sendgridapikey"`
		FromEmail        string `mapstructure:"defaultfromemail"`
		FrontendBaseURL  string `mapstructure:"frontendbaseurl"`
		Server           ServerConfig
		Database         DatabaseConfig
		Attendance       AttendanceConfig
		attendanceTZ     *time.Location
		defaultFromEmail mail.Address
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "TEAS")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "g7x#v1-2tq$e8m^d0l@9kz&p4w!ub3ry(6oh)s5fncj*ia")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "TEAS <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "teas")
	v.SetDefault("database.user", "teas")
	v.SetDefault("database.password", "teas")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "teas.db")

	v.SetDefault("attendance.timezone", "UTC")
}

// NewConfig loads the configuration for the current ENV (DEV by default).
// Values come from defaults, then config/.env.<env> if present, then the environment.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.Set("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.Set("env", env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// DATABASE_HOST -> database.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	if err := conf.init(); err != nil {
		log.Fatalf("config.init: %v", err)
	}
	return conf
}

func (c *Config) init() error {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return err
	}
	c.attendanceTZ = loc

	from, err := mail.ParseAddress(c.FromEmail)
	if err != nil {
		return err
	}
	c.defaultFromEmail = *from
	return nil
}

// AttendanceLocation is the timezone used to decide what "today" is.
func (c *Config) AttendanceLocation() *time.Location {
	if c.attendanceTZ == nil {
		return time.UTC
	}
	return c.attendanceTZ
}

func (c *Config) DefaultFromEmail() mail.Address {
	return c.defaultFromEmail
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewTestConfig returns a Config suitable for tests: in-memory database, no mailer output.
func NewTestConfig() *Config {
	conf := &Config{
		Env:       "TEST",
		Debug:     false,
		TestMode:  true,
		AppName:   "TEAS",
		Build:     "test",
		SecretKey: "secret",
		FromEmail: "TEAS <noreply@test.local>",
		Server: ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			DisableReqLogs:            true,
		},
		Database:   DatabaseConfig{Engine: "memory"},
		Attendance: AttendanceConfig{Timezone: "UTC"},
	}
	_ = conf.init()
	return conf
}
