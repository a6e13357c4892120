package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dextracker/internal/api"
	"dextracker/internal/config"
	"dextracker/internal/logging"
	"dextracker/internal/metrics"
	"dextracker/internal/store"
	"dextracker/internal/store/filestore"
	"dextracker/internal/store/sqlitestore"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		check   func(t *testing.T, b store.Backend)
		wantErr bool
	}{
		{
			name: "file",
			cfg:  config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "a", "caught.json")},
			check: func(t *testing.T, b store.Backend) {
				assert.IsType(t, &filestore.Store{}, b)
				assert.DirExists(t, filepath.Join(dir, "a"))
			},
		},
		{
			name: "sqlite",
			cfg:  config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "b", "caught.db")},
			check: func(t *testing.T, b store.Backend) {
				assert.IsType(t, &sqlitestore.Store{}, b)
			},
		},
		{
			name:    "unknown",
			cfg:     config.StoreConfig{Backend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := openBackend(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			tt.check(t, b)

			// Both backends start empty and round-trip a record.
			st := store.Open(context.Background(), b, nil)
			_, err = st.Set(context.Background(), "pikachu", true, false)
			require.NoError(t, err)

			doc, err := b.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, store.Record{Normal: true}, doc.Caught["pikachu"])
		})
	}
}

func TestServe_SetupFailureLeavesPortFree(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		backup config.BackupConfig
		store  config.StoreConfig
	}{
		{
			name:   "backup without interval",
			backup: config.BackupConfig{Enabled: true, Dir: filepath.Join(dir, "backups"), Keep: 1},
			store:  config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "caught.json")},
		},
		{
			name:  "watch on missing directory",
			store: config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "missing", "caught.json"), Watch: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			port := ln.Addr().(*net.TCPAddr).Port
			require.NoError(t, ln.Close())

			cfg := &config.Config{
				Server: config.ServerConfig{Host: "127.0.0.1", Port: port, StaticDir: dir},
				Store:  tt.store,
				Backup: tt.backup,
			}
			st := store.Open(context.Background(), filestore.New(filepath.Join(dir, "caught.json")), nil)
			srv, err := api.New(api.Deps{Config: cfg.Server, Store: st})
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err = serve(ctx, cfg, st, srv, logging.Discard(), metrics.NoopRecorder{})
			require.Error(t, err)

			// Nothing may still be listening once serve has returned.
			again, err := net.Listen("tcp", cfg.Server.Addr())
			require.NoError(t, err)
			require.NoError(t, again.Close())
		})
	}
}
