package cliparse

import (
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("USER_TOKEN_SALT", "")
	t.Setenv("VOTE_CAP", "")
	t.Setenv("ALLOW_ANONYMOUS_VOTES", "")

	t.Run("flags only", func(t *testing.T) {
		cfg, err := ParseFlags([]string{
			"-p", "4000",
			"-d", "postgres://localhost/test",
			"-token-salt", "salt",
			"-vote-cap", "5",
			"-allow-anon",
		})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 4000 {
			t.Errorf("Expected port 4000, got %d", cfg.Port)
		}
		if cfg.VoteCap != 5 {
			t.Errorf("Expected vote cap 5, got %d", cfg.VoteCap)
		}
		if !cfg.AllowAnonymousVotes {
			t.Error("Expected anonymous votes to be enabled")
		}
		if cfg.DatabaseType != "postgres" {
			t.Errorf("Expected default database type postgres, got %s", cfg.DatabaseType)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := ParseFlags([]string{
			"-d", "postgres://localhost/test",
			"-token-salt", "salt",
		})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 3319 {
			t.Errorf("Expected default port 3319, got %d", cfg.Port)
		}
		if cfg.VoteCap != 3 {
			t.Errorf("Expected default vote cap 3, got %d", cfg.VoteCap)
		}
		if cfg.FreeGenerationLimit != 2 {
			t.Errorf("Expected default generation limit 2, got %d", cfg.FreeGenerationLimit)
		}
		if cfg.FreePollLimit != 2 {
			t.Errorf("Expected default poll limit 2, got %d", cfg.FreePollLimit)
		}
		if cfg.AllowAnonymousVotes {
			t.Error("Expected anonymous votes to be disabled by default")
		}
	})

	t.Run("env fallbacks", func(t *testing.T) {
		t.Setenv("PORT", "5000")
		t.Setenv("DATABASE_URL", "postgres://env/db")
		t.Setenv("USER_TOKEN_SALT", "env-salt")
		t.Setenv("VOTE_CAP", "7")
		t.Setenv("ALLOW_ANONYMOUS_VOTES", "true")

		cfg, err := ParseFlags(nil)
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 5000 {
			t.Errorf("Expected port 5000, got %d", cfg.Port)
		}
		if cfg.DatabaseURL != "postgres://env/db" {
			t.Errorf("Expected env database URL, got %s", cfg.DatabaseURL)
		}
		if cfg.UserTokenSalt != "env-salt" {
			t.Errorf("Expected env salt, got %s", cfg.UserTokenSalt)
		}
		if cfg.VoteCap != 7 {
			t.Errorf("Expected vote cap 7, got %d", cfg.VoteCap)
		}
		if !cfg.AllowAnonymousVotes {
			t.Error("Expected anonymous votes from env")
		}
	})

	t.Run("flags beat env", func(t *testing.T) {
		t.Setenv("PORT", "5000")
		t.Setenv("DATABASE_URL", "postgres://env/db")
		t.Setenv("USER_TOKEN_SALT", "env-salt")

		cfg, err := ParseFlags([]string{"-p", "6000", "-d", "postgres://flag/db"})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 6000 {
			t.Errorf("Expected flag port 6000, got %d", cfg.Port)
		}
		if cfg.DatabaseURL != "postgres://flag/db" {
			t.Errorf("Expected flag database URL, got %s", cfg.DatabaseURL)
		}
	})

	t.Run("missing database URL", func(t *testing.T) {
		_, err := ParseFlags([]string{"-token-salt", "salt"})
		if err == nil {
			t.Error("Expected error without a database URL")
		}
	})

	t.Run("missing token salt", func(t *testing.T) {
		_, err := ParseFlags([]string{"-d", "postgres://localhost/test"})
		if err == nil {
			t.Error("Expected error without a token salt")
		}
	})

	t.Run("invalid port env", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		t.Setenv("DATABASE_URL", "postgres://env/db")
		t.Setenv("USER_TOKEN_SALT", "env-salt")

		_, err := ParseFlags(nil)
		if err == nil {
			t.Error("Expected error for invalid PORT")
		}
	})
}
