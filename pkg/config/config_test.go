package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func chdirToRepoRoot(t *testing.T) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir to repo root: %v", err)
	}
	return func() { os.Chdir(wd) }
}

func TestLoadDefault(t *testing.T) {
	defer chdirToRepoRoot(t)()
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network.ListenPort != 9001 {
		t.Fatalf("expected default listen port 9001, got %d", cfg.Network.ListenPort)
	}
	if !cfg.Network.UseLRUCache {
		t.Fatal("expected default use_lru_cache true")
	}
}

func TestLoadMergesEnvOverride(t *testing.T) {
	defer chdirToRepoRoot(t)()
	viper.Reset()

	cfg, err := Load("bootstrap")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network.LRUCacheSize != 512 {
		t.Fatalf("expected overridden lru_cache_size 512, got %d", cfg.Network.LRUCacheSize)
	}
	// fields not present in bootstrap.yaml should retain the default value.
	if cfg.Network.ListenPort != 9001 {
		t.Fatalf("expected listen port to remain 9001 after merge, got %d", cfg.Network.ListenPort)
	}
}

func TestLoadFromEnvUsesEnvironmentVariable(t *testing.T) {
	defer chdirToRepoRoot(t)()
	viper.Reset()

	t.Setenv("NETMESH_ENV", "bootstrap")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Network.LRUCacheSize != 512 {
		t.Fatalf("expected overridden lru_cache_size 512, got %d", cfg.Network.LRUCacheSize)
	}
}
