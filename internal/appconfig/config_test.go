package appconfig

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigPathHonoursXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if path != filepath.Join(base, "crust", "config.yaml") {
		t.Fatalf("unexpected path %q", path)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.SSH.HostKeyPath != filepath.Join(base, "crust", "ssh_host_ed25519_key") {
		t.Fatalf("unexpected host key path %q", cfg.SSH.HostKeyPath)
	}
	if cfg.Suggest.Enabled {
		t.Fatalf("expected ask mode to default off")
	}
}
