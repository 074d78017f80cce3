/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	ollamaHost     string
	ollamaModel    string
	pingInterval   time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	skipCooldown   time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	wordCount      int
	wordTimeout    time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.pingInterval <= 0 {
		return fmt.Errorf("invalid ping interval (must be positive): %s", c.pingInterval)
	}
	if c.skipCooldown < 0 {
		return fmt.Errorf("invalid skip cooldown (must not be negative): %s", c.skipCooldown)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}
	if c.wordCount < 1 {
		return fmt.Errorf("invalid word count (must be at least 1): %d", c.wordCount)
	}
	if c.wordTimeout <= 0 {
		return fmt.Errorf("invalid word timeout (must be positive): %s", c.wordTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PARTYSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partysus",
		Short:         "A room server for a social deduction word game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PARTYSUS_BIND)")
	fs.StringVar(&cfg.ollamaHost, "ollama-host", "", "ollama server used to generate words; built-in list if unset (env: PARTYSUS_OLLAMA_HOST)")
	fs.StringVar(&cfg.ollamaModel, "ollama-model", "tinyllama", "ollama model used to generate words (env: PARTYSUS_OLLAMA_MODEL)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 10*time.Second, "interval between connection liveness probes (env: PARTYSUS_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PARTYSUS_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PARTYSUS_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PARTYSUS_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 0, "time before idle rooms with no connections are ended; 0 keeps them (env: PARTYSUS_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.skipCooldown, "skip-cooldown", 5*time.Minute, "time a player must wait between round skips (env: PARTYSUS_SKIP_COOLDOWN)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PARTYSUS_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PARTYSUS_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PARTYSUS_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PARTYSUS_VERSION)")
	fs.IntVar(&cfg.wordCount, "word-count", 4, "candidate words dealt per round (env: PARTYSUS_WORD_COUNT)")
	fs.DurationVar(&cfg.wordTimeout, "word-timeout", 10*time.Second, "time allowed for word generation (env: PARTYSUS_WORD_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partysus v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
