package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RANKBOARD_LISTEN.
const EnvPrefix = "RANKBOARD_"

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type Config struct {
	Listen      string      `yaml:"listen" env:"LISTEN"`
	Admin       Admin       `yaml:"admin" envPrefix:"ADMIN_"`
	Logger      Logger      `yaml:"logger" envPrefix:"LOGGER_"`
	Storage     Storage     `yaml:"storage" envPrefix:"STORAGE_"`
	Auth        Auth        `yaml:"auth" envPrefix:"AUTH_"`
	Moderation  Moderation  `yaml:"moderation" envPrefix:"MODERATION_"`
	Publication Publication `yaml:"publication" envPrefix:"PUBLICATION_"`
	Tracks      Tracks      `yaml:"tracks" envPrefix:"TRACKS_"`
	Redis       Redis       `yaml:"redis" envPrefix:"REDIS_"`
	CORS        CORS        `yaml:"cors" envPrefix:"CORS_"`
}

type Logger struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Storage selects the gorm dialector. Driver is one of sqlite, postgres or
// memory; Database is the sqlite file path or the postgres DSN.
type Storage struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	Database string `yaml:"database" env:"DATABASE"`
}

type Auth struct {
	JWT JWT `yaml:"jwt" envPrefix:"JWT_"`
}

type JWT struct {
	Secret      string `yaml:"secret" env:"SECRET"`
	ExpireHours int    `yaml:"expire_hours" env:"EXPIRE_HOURS"`
}

// Moderation describes who may post problems and score submissions. When no
// role is configured for a track, the manage_messages permission is enough.
type Moderation struct {
	RoleID     int64            `yaml:"role_id" env:"ROLE_ID"`
	TrackRoles map[string]int64 `yaml:"track_roles"`
}

// RoleFor returns the moderator role for track, falling back to the global
// role. Zero means no role is configured.
func (m Moderation) RoleFor(track models.Track) int64 {
	if id, ok := m.TrackRoles[string(track)]; ok && id != 0 {
		return id
	}
	return m.RoleID
}

type Publication struct {
	// SelfID is the renderer's own author id; only its renderings are
	// candidates for in-place replacement.
	SelfID int64 `yaml:"self_id" env:"SELF_ID"`
}

type Track struct {
	Title   string `yaml:"title" env:"TITLE"`
	PerPage int    `yaml:"per_page" env:"PER_PAGE"`
}

type Tracks struct {
	Math Track `yaml:"math" envPrefix:"MATH_"`
	CP   Track `yaml:"cp" envPrefix:"CP_"`
}

func (t Tracks) For(track models.Track) Track {
	if track == models.TrackCP {
		return t.CP
	}
	return t.Math
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Listen  string `yaml:"listen" env:"LISTEN"`
}

// Load reads the YAML file at path (skipped when path is empty), then applies
// a .env file if present and RANKBOARD_* environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Admin.Listen == "" {
		c.Admin.Listen = ":8081"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Database == "" && c.Storage.Driver == "sqlite" {
		c.Storage.Database = "data/rankboard.db"
	}
	if c.Auth.JWT.ExpireHours <= 0 {
		c.Auth.JWT.ExpireHours = 24
	}
	if c.Tracks.Math.Title == "" {
		c.Tracks.Math.Title = "Mathematics Leaderboard"
	}
	if c.Tracks.CP.Title == "" {
		c.Tracks.CP.Title = "Competitive Programming Leaderboard"
	}
	if c.Tracks.Math.PerPage <= 0 {
		c.Tracks.Math.PerPage = 10
	}
	if c.Tracks.CP.PerPage <= 0 {
		c.Tracks.CP.PerPage = 10
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "rankboard"
	}
}
