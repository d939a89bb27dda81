package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/Seednode/saboteur/internal/game"
	"github.com/Seednode/saboteur/internal/hub"
)

type Config struct {
	bind           string
	killCooldown   time.Duration
	killRadius     float64
	minPlayers     int
	oxygenDuration time.Duration
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	roomTimeout    time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < 3 {
		return fmt.Errorf("invalid minimum player count (must be at least 3): %d", c.minPlayers)
	}
	if c.killCooldown < 0 || c.oxygenDuration <= 0 || c.roomTimeout < 0 {
		return errors.New("durations must not be negative, and --oxygen-duration must be positive")
	}
	if c.killRadius <= 0 {
		return fmt.Errorf("invalid kill radius (must be positive): %v", c.killRadius)
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return errors.New("--rate-limit must be positive and --rate-burst at least 1")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) rules() game.Rules {
	rules := game.DefaultRules()
	rules.MinPlayers = c.minPlayers
	rules.KillCooldown = c.killCooldown
	rules.KillRadius = c.killRadius
	rules.OxygenDuration = c.oxygenDuration
	return rules
}

func (c *Config) hub() hub.Config {
	return hub.Config{
		RoomTimeout:   c.roomTimeout,
		SweepInterval: time.Second,
		RateLimit:     rate.Limit(c.rateLimit),
		RateBurst:     c.rateBurst,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SABOTEUR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "saboteur",
		Short:         "Authoritative room server for a real-time social deduction party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	defaults := game.DefaultRules()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SABOTEUR_BIND)")
	fs.DurationVar(&cfg.killCooldown, "kill-cooldown", defaults.KillCooldown, "time between kills by one saboteur (env: SABOTEUR_KILL_COOLDOWN)")
	fs.Float64Var(&cfg.killRadius, "kill-radius", defaults.KillRadius, "maximum distance between killer and victim (env: SABOTEUR_KILL_RADIUS)")
	fs.IntVar(&cfg.minPlayers, "min-players", defaults.MinPlayers, "players required to start a game (env: SABOTEUR_MIN_PLAYERS)")
	fs.DurationVar(&cfg.oxygenDuration, "oxygen-duration", defaults.OxygenDuration, "time to repair an oxygen sabotage (env: SABOTEUR_OXYGEN_DURATION)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SABOTEUR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SABOTEUR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SABOTEUR_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 60, "inbound message burst allowed per connection (env: SABOTEUR_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 30, "inbound messages per second allowed per connection (env: SABOTEUR_RATE_LIMIT)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 10*time.Minute, "time before rooms nobody joined are removed (env: SABOTEUR_ROOM_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SABOTEUR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SABOTEUR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SABOTEUR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SABOTEUR_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("saboteur v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
