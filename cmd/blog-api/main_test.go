package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/blog-api/config"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr error
	}{
		{
			name: "defaults",
			want: options{envFiles: []string{".env"}},
		},
		{
			name: "all flags",
			args: []string{"--env-file", "a.env,b.env", "--store", "memory", "--migrate-only"},
			want: options{envFiles: []string{"a.env", "b.env"}, store: "memory", migrateOnly: true},
		},
		{
			name:    "help",
			args:    []string{"--help"},
			wantErr: pflag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := parseFlags(tt.args, &out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("positional arguments rejected", func(t *testing.T) {
		_, err := parseFlags([]string{"serve"}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unexpected argument")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "main-test-secret")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_BACKEND", "")

	t.Run("store flag overrides environment", func(t *testing.T) {
		cfg, err := loadConfig(context.Background(), options{envFiles: []string{"does-not-exist.env"}, store: config.StoreMemory})
		require.NoError(t, err)
		assert.Equal(t, config.StoreMemory, cfg.Store)
	})

	t.Run("migrate-only needs postgres", func(t *testing.T) {
		_, err := loadConfig(context.Background(), options{
			envFiles:    []string{"does-not-exist.env"},
			store:       config.StoreMemory,
			migrateOnly: true,
		})
		assert.ErrorContains(t, err, "--migrate-only")
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := loadConfig(context.Background(), options{envFiles: []string{"does-not-exist.env"}, store: "sqlite"})
		assert.Error(t, err)
	})
}
