package cfg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultConfigFile is read when no other path is given
const DefaultConfigFile = "config.yaml"

const (
	defaultDSN        = "soundbig.sqlite"
	defaultSoundDelay = 3500 * time.Millisecond
	defaultRateLimit  = 5
	defaultBurst      = 10

	tokenPlaceholder = "your_bot_token_here"
)

// Config struct with all parameters
type Config struct {
	Discord struct {
		Token      string `yaml:"token"`
		OwnerID    string `yaml:"owner_id,omitempty"`
		GuildID    string `yaml:"guild_id,omitempty"`
		ShardID    int    `yaml:"shard_id,omitempty"`
		ShardCount int    `yaml:"shard_count,omitempty"`
	} `yaml:"discord"`
	Database struct {
		Driver string `yaml:"driver,omitempty"`
		DSN    string `yaml:"dsn,omitempty"`
	} `yaml:"database"`
	Playback struct {
		// SoundDelay is how long a sound is assumed to play before the next
		// one is sent. The platform reports no completion, so this is an estimate.
		// 0 sends the sounds back to back.
		SoundDelay time.Duration `yaml:"sound_delay,omitempty"`
	} `yaml:"playback"`
	Web struct {
		Port      int     `yaml:"port,omitempty"`
		RateLimit float64 `yaml:"rate_limit,omitempty"`
		Burst     int     `yaml:"burst,omitempty"`
	} `yaml:"web"`
	DevMode bool `yaml:"dev_mode,omitempty"`
}

// Load reads the given file, applies environment overrides and fills defaults.
// A missing file is not an error, the environment alone may configure the bot.
func Load(path string) (*Config, error) {
	config, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	applyDefaults(config)
	return config, nil
}

// loadFile decodes over the defaults of fields where zero is a valid
// setting, so a key that is present always wins.
func loadFile(cf string) (*Config, error) {
	config := &Config{}
	config.Playback.SoundDelay = defaultSoundDelay
	configFile, err := os.Open(cf)
	if err != nil {
		slog.Warn("Could not load config file.", "file", cf, "error", err)
		return config, nil
	}
	defer configFile.Close()

	d := yaml.NewDecoder(configFile)

	if err := d.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode config %s: %w", cf, err)
	}

	return config, nil
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_OWNER_ID"); v != "" {
		c.Discord.OwnerID = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		c.Discord.GuildID = v
	}

	// DB_* variables describe a postgres server and win over the file,
	// DATABASE_* variables win over both.
	if host := os.Getenv("DB_HOST"); host != "" {
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		c.Database.Driver = DriverPostgres
		c.Database.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv("SOUND_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SOUND_DELAY %q: %w", v, err)
		}
		c.Playback.SoundDelay = d
	}
	if v := os.Getenv("WEB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WEB_PORT %q: %w", v, err)
		}
		c.Web.Port = p
	}
	if os.Getenv("DEV_MODE") != "" {
		c.DevMode = true
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = defaultDSN
	}
	if c.Web.RateLimit == 0 {
		c.Web.RateLimit = defaultRateLimit
	}
	if c.Web.Burst == 0 {
		c.Web.Burst = defaultBurst
	}
	if c.Discord.ShardCount <= 0 {
		c.Discord.ShardCount = 1
	}
}

// HasToken reports whether a real bot token is configured
func (c *Config) HasToken() bool {
	return c.Discord.Token != "" && c.Discord.Token != tokenPlaceholder
}

// Validate checks the settings needed to run the bot
func (c *Config) Validate() error {
	if !c.HasToken() {
		return errors.New("discord token is not set")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is empty for driver %s", c.Database.Driver)
	}
	if c.Playback.SoundDelay < 0 {
		return fmt.Errorf("sound delay must not be negative, got %s", c.Playback.SoundDelay)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port out of range: %d", c.Web.Port)
	}
	return nil
}
