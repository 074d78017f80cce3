/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		bind:         "0.0.0.0",
		pingInterval: 10 * time.Second,
		port:         8080,
		skipCooldown: 5 * time.Minute,
		wordCount:    4,
		wordTimeout:  10 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "tls pair", modify: func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }},
		{name: "cert without key", modify: func(c *Config) { c.tlsCert = "cert.pem" }, wantErr: "tls"},
		{name: "key without cert", modify: func(c *Config) { c.tlsKey = "key.pem" }, wantErr: "tls"},
		{name: "port zero", modify: func(c *Config) { c.port = 0 }, wantErr: "port"},
		{name: "port too high", modify: func(c *Config) { c.port = 65536 }, wantErr: "port"},
		{name: "no ping interval", modify: func(c *Config) { c.pingInterval = 0 }, wantErr: "ping interval"},
		{name: "negative cooldown", modify: func(c *Config) { c.skipCooldown = -time.Second }, wantErr: "skip cooldown"},
		{name: "negative session timeout", modify: func(c *Config) { c.sessionTimeout = -time.Second }, wantErr: "session timeout"},
		{name: "no words", modify: func(c *Config) { c.wordCount = 0 }, wantErr: "word count"},
		{name: "no word timeout", modify: func(c *Config) { c.wordTimeout = 0 }, wantErr: "word timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestNewCmdDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 4, cfg.wordCount)
	assert.Equal(t, 5*time.Minute, cfg.skipCooldown)
	assert.Equal(t, 10*time.Second, cfg.pingInterval)
	assert.Zero(t, cfg.sessionTimeout)
	assert.Empty(t, cfg.ollamaHost)
	assert.NoError(t, cfg.validate())
}

func TestNewCmdReadsEnvironment(t *testing.T) {
	t.Setenv("PARTYSUS_PORT", "9090")
	t.Setenv("PARTYSUS_SKIP_COOLDOWN", "30s")
	t.Setenv("PARTYSUS_OLLAMA_HOST", "http://localhost:11434")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 9090, cfg.port)
	assert.Equal(t, 30*time.Second, cfg.skipCooldown)
	assert.Equal(t, "http://localhost:11434", cfg.ollamaHost)
}

func TestNewCmdFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PARTYSUS_WORD_COUNT", "6")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--word-count", "3"}))

	assert.Equal(t, 3, cfg.wordCount)
}
