package cmd

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/analytics"
	"github.com/capscope/capscope/pkg/merge"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration shared by all commands.
type Settings struct {
	DataDir     string
	Pairs       []merge.Pair
	Concurrency int

	IntakeSource string

	AnalyticsEnabled  bool
	AnalyticsEndpoint string
	IdentityFile      string

	AdminEndpoint  string
	AdminTokenFile string

	ServerListen   string
	ServerUsername string
	ServerPassword string

	DBPath string
}

func loadSettings() (Settings, error) {
	s := Settings{
		DataDir:           utils.ExpandPath(viper.GetString("data.dir")),
		Concurrency:       viper.GetInt("merge.concurrency"),
		IntakeSource:      viper.GetString("intake.source"),
		AnalyticsEnabled:  viper.GetBool("analytics.enabled"),
		AnalyticsEndpoint: viper.GetString("analytics.endpoint"),
		IdentityFile:      utils.ExpandPath(viper.GetString("analytics.identity_file")),
		AdminEndpoint:     viper.GetString("admin.endpoint"),
		AdminTokenFile:    utils.ExpandPath(viper.GetString("admin.token_file")),
		ServerListen:      viper.GetString("server.listen"),
		ServerUsername:    viper.GetString("server.username"),
		ServerPassword:    viper.GetString("server.password"),
		DBPath:            utils.ExpandPath(viper.GetString("db.path")),
	}
	if err := viper.UnmarshalKey("merge.pairs", &s.Pairs); err != nil {
		return s, fmt.Errorf("invalid merge.pairs: %w", err)
	}
	return s, nil
}

// Validate reports the first setting that cannot work.
func (s Settings) Validate() error {
	for _, check := range []func() error{s.validateMerge, s.validateIntake, s.validateAnalytics, s.validateServer} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (s Settings) validateMerge() error {
	if s.Concurrency < 1 {
		return fmt.Errorf("merge.concurrency must be at least 1, got %d", s.Concurrency)
	}
	for i, p := range s.Pairs {
		if p.Source == "" || p.Target == "" {
			return fmt.Errorf("merge.pairs[%d] needs both source and target", i)
		}
		if p.Source == p.Target {
			return fmt.Errorf("merge.pairs[%d] merges %s into itself", i, p.Source)
		}
	}
	return nil
}

func (s Settings) validateIntake() error {
	if s.IntakeSource == "" {
		return errors.New("intake.source must not be empty")
	}
	return nil
}

func (s Settings) validateAnalytics() error {
	if s.AnalyticsEnabled {
		if err := checkURL(s.AnalyticsEndpoint); err != nil {
			return fmt.Errorf("analytics.endpoint: %w", err)
		}
	}
	return nil
}

func (s Settings) validateServer() error {
	if (s.ServerUsername == "") != (s.ServerPassword == "") {
		return errors.New("server.username and server.password must be set together")
	}
	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// settingsFromConfig loads the settings and runs only the given checks, so a
// command is not blocked by keys it never reads.
func settingsFromConfig(checks ...func(Settings) error) (Settings, error) {
	s, err := loadSettings()
	if err != nil {
		return s, err
	}
	for _, check := range checks {
		if err := check(s); err != nil {
			return s, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return s, nil
}

func newTracker(s Settings) *analytics.Tracker {
	return analytics.NewTracker(analytics.Config{
		Enabled:   s.AnalyticsEnabled,
		Endpoint:  s.AnalyticsEndpoint,
		UserAgent: "capscope-cli",
	}, analytics.NewFileIdentity(s.IdentityFile))
}
