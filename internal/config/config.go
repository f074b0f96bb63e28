package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

// Duration wraps time.Duration so yaml values like "5m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type Public struct {
	HTTPAddress string   `yaml:"http_address"`
	LogLevel    string   `yaml:"log_level"`
	LogJSON     bool     `yaml:"log_json"`
	DBPath      string   `yaml:"db_path"`
	JwtTTL      Duration `yaml:"jwt_ttl"`

	Rewards  Rewards  `yaml:"rewards"`
	Lifetime Lifetime `yaml:"lifetime"`

	ModerationLogCap int `yaml:"moderation_log_cap"` // oldest entries beyond the cap are trimmed
	NotificationsCap int `yaml:"notifications_cap"`
	ArchiveAfterDays int `yaml:"archive_after_days"`
	ReportBlurCount  int `yaml:"report_blur_count"` // reports before post content gets blurred
}

type Rewards struct {
	FirstPost       int64    `yaml:"first_post"`
	DailyPost       int64    `yaml:"daily_post"`
	Comment         int64    `yaml:"comment"`
	CommentReceived int64    `yaml:"comment_received"`
	Reaction        int64    `yaml:"reaction"`
	Report          int64    `yaml:"report"`
	Helpful         int64    `yaml:"helpful"`
	HelpfulVotes    int      `yaml:"helpful_votes"` // votes needed before the helpful bonus fires
	Viral           int64    `yaml:"viral"`
	ViralReactions  int      `yaml:"viral_reactions"`
	DailyStreak     int64    `yaml:"daily_streak"`
	StreakMilestone int      `yaml:"streak_milestone"`
	StreakBonus     int64    `yaml:"streak_bonus"`
	Moderation      int64    `yaml:"moderation"`
	ModerationCD    Duration `yaml:"moderation_cooldown"`
}

type Lifetime struct {
	ExtensionHours int   `yaml:"extension_hours"`
	ExtensionCost  int64 `yaml:"extension_cost"`
	MaxCustomHours int   `yaml:"max_custom_hours"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
}

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return time.Duration(s.Public.JwtTTL)
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.Public.applyDefaults()
	return cfg
}

// Default returns a config with production default values. Used by tests
// and to backfill fields missing from the yaml.
func Default() *Config {
	public := Public{}
	public.applyDefaults()
	return &Config{Public: public, private: Private{JwtKey: "test-key"}}
}

func (p *Public) applyDefaults() {
	if p.HTTPAddress == "" {
		p.HTTPAddress = ":8080"
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	if p.DBPath == "" {
		p.DBPath = "hushcampus.db"
	}
	if p.JwtTTL == 0 {
		p.JwtTTL = Duration(24 * time.Hour)
	}
	if p.ModerationLogCap == 0 {
		p.ModerationLogCap = 100
	}
	if p.NotificationsCap == 0 {
		p.NotificationsCap = 50
	}
	if p.ArchiveAfterDays == 0 {
		p.ArchiveAfterDays = 30
	}
	if p.ReportBlurCount == 0 {
		p.ReportBlurCount = 3
	}
	r := &p.Rewards
	if r.FirstPost == 0 {
		r.FirstPost = 10
	}
	if r.DailyPost == 0 {
		r.DailyPost = 5
	}
	if r.Comment == 0 {
		r.Comment = 3
	}
	if r.CommentReceived == 0 {
		r.CommentReceived = 2
	}
	if r.Reaction == 0 {
		r.Reaction = 1
	}
	if r.Report == 0 {
		r.Report = 2
	}
	if r.Helpful == 0 {
		r.Helpful = 25
	}
	if r.HelpfulVotes == 0 {
		r.HelpfulVotes = 5
	}
	if r.Viral == 0 {
		r.Viral = 150
	}
	if r.ViralReactions == 0 {
		r.ViralReactions = 100
	}
	if r.DailyStreak == 0 {
		r.DailyStreak = 5
	}
	if r.StreakMilestone == 0 {
		r.StreakMilestone = 7
	}
	if r.StreakBonus == 0 {
		r.StreakBonus = 50
	}
	if r.Moderation == 0 {
		r.Moderation = 5
	}
	if r.ModerationCD == 0 {
		r.ModerationCD = Duration(5 * time.Minute)
	}
	l := &p.Lifetime
	if l.ExtensionHours == 0 {
		l.ExtensionHours = 24
	}
	if l.ExtensionCost == 0 {
		l.ExtensionCost = 20
	}
	if l.MaxCustomHours == 0 {
		l.MaxCustomHours = 24 * 30
	}
}
