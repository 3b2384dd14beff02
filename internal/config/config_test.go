package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestLoad_Defaults(t *testing.T) {
	c := qt.New(t)
	c.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	c.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, "5000")
	c.Assert(cfg.MaxUploadMB, qt.Equals, DefaultMaxUploadMB)
	c.Assert(cfg.SessionTTL, qt.Equals, 24*time.Hour)
	c.Assert(cfg.MaxUploadBytes(), qt.Equals, int64(10<<20))
}

func TestLoad_FileThenEnv(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("port: \"7000\"\nupload_dir: /srv/pdfs\nsession_ttl: 2h\nmax_upload_mb: 20\n"), 0o600)
	c.Assert(err, qt.IsNil)

	c.Setenv("CONFIG_FILE", path)
	c.Setenv("PORT", "8081")
	c.Setenv("MAX_UPLOAD_MB", "")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, "8081")
	c.Assert(cfg.UploadDir, qt.Equals, "/srv/pdfs")
	c.Assert(cfg.SessionTTL, qt.Equals, 2*time.Hour)
	c.Assert(cfg.MaxUploadMB, qt.Equals, 20)
}

func TestLoad_BadFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	c.Assert(os.WriteFile(path, []byte("port: [unterminated"), 0o600), qt.IsNil)
	c.Setenv("CONFIG_FILE", path)

	_, err := Load()
	c.Assert(err, qt.ErrorMatches, "decode config file .*")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing database url",
			cfg:     Config{MaxUploadMB: 10, SessionTTL: time.Hour},
			wantErr: "DATABASE_URL environment variable is not set",
		},
		{
			name:    "prod requires secret",
			cfg:     Config{DatabaseURL: "postgres://x", Environment: "prod", MaxUploadMB: 10, SessionTTL: time.Hour},
			wantErr: "JWT_SECRET must be set in prod",
		},
		{
			name:    "non-positive upload limit",
			cfg:     Config{DatabaseURL: "postgres://x", JWTSecret: "s", SessionTTL: time.Hour},
			wantErr: "MAX_UPLOAD_MB must be positive, got 0",
		},
		{
			name: "dev gets fallback secret",
			cfg:  Config{DatabaseURL: "postgres://x", Environment: "dev", MaxUploadMB: 10, SessionTTL: time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				c.Assert(err, qt.ErrorMatches, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(tt.cfg.JWTSecret, qt.Not(qt.Equals), "")
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := qt.New(t)
	cfg := Config{CORSOrigins: " http://a.test , ,http://b.test"}
	c.Assert(cfg.AllowedOrigins(), qt.DeepEquals, []string{"http://a.test", "http://b.test"})
}

func TestSetupLogFile_Prunes(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	for _, name := range []string{"valvx-2020-01-01T00-00-00.000.log", "valvx-2020-01-02T00-00-00.000.log"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), nil, 0o600), qt.IsNil)
	}

	f, err := SetupLogFile(dir, 2)
	c.Assert(err, qt.IsNil)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "valvx-*.log"))
	c.Assert(err, qt.IsNil)
	c.Assert(files, qt.HasLen, 2)
	c.Assert(filepath.Base(files[0]), qt.Equals, "valvx-2020-01-02T00-00-00.000.log")
}

func TestLoad_TOMLFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "valvx.toml")
	err := os.WriteFile(path, []byte("port = \"7100\"\nupload_dir = \"/data/pdf\"\nsession_ttl = \"90m\"\nredis_db = 3\n"), 0o600)
	c.Assert(err, qt.IsNil)

	c.Setenv("CONFIG_FILE", path)
	c.Setenv("PORT", "")
	c.Setenv("UPLOAD_DIR", "")
	c.Setenv("SESSION_TTL", "")
	c.Setenv("REDIS_DB", "")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, "7100")
	c.Assert(cfg.UploadDir, qt.Equals, "/data/pdf")
	c.Assert(cfg.SessionTTL, qt.Equals, 90*time.Minute)
	c.Assert(cfg.RedisDB, qt.Equals, 3)
	c.Assert(cfg.MaxUploadMB, qt.Equals, DefaultMaxUploadMB)
}
