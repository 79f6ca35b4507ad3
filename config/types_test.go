package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 3000},
		Database: DatabaseConfig{Host: "localhost"},
		Queue:    QueueConfig{Name: "emails", MaxAttempts: 3, BackoffBaseMs: 2000},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "missing database host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "database.host"},
		{name: "negative attempts", mutate: func(c *Config) { c.Queue.MaxAttempts = -1 }, wantErr: "queue.max_attempts"},
		{
			name: "email enabled without smtp host",
			mutate: func(c *Config) {
				c.Email.Enabled = true
				c.Email.SMTP.Host = ""
			},
			wantErr: "email.smtp.host",
		},
		{
			name: "email disabled ignores smtp host",
			mutate: func(c *Config) {
				c.Email.Enabled = false
				c.Email.SMTP.Host = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
