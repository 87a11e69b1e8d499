package commands

import (
	"testing"
)

func TestResolveListenAddr_Defaults(t *testing.T) {
	t.Setenv("VOXDOCS_HOST", "")
	t.Setenv("VOXDOCS_PORT", "")

	host, port := resolveListenAddr(NewServeCmd())
	if host != "127.0.0.1" || port != 5001 {
		t.Errorf("defaults: want 127.0.0.1:5001, got %s:%d", host, port)
	}
}

// TestResolveListenAddr_EnvOverridesDefaults pins that the server.host and
// server.port config keys (surfaced as VOXDOCS_HOST/VOXDOCS_PORT) actually
// reach the bind address when no flag is given.
func TestResolveListenAddr_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("VOXDOCS_HOST", "0.0.0.0")
	t.Setenv("VOXDOCS_PORT", "9090")

	host, port := resolveListenAddr(NewServeCmd())
	if host != "0.0.0.0" || port != 9090 {
		t.Errorf("env fallback: want 0.0.0.0:9090, got %s:%d", host, port)
	}
}

func TestResolveListenAddr_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("VOXDOCS_HOST", "0.0.0.0")
	t.Setenv("VOXDOCS_PORT", "9090")

	cmd := NewServeCmd()
	if err := cmd.Flags().Set("host", "192.168.0.5"); err != nil {
		t.Fatalf("set host flag: %v", err)
	}
	if err := cmd.Flags().Set("port", "8080"); err != nil {
		t.Fatalf("set port flag: %v", err)
	}

	host, port := resolveListenAddr(cmd)
	if host != "192.168.0.5" || port != 8080 {
		t.Errorf("flags must win over env: got %s:%d", host, port)
	}
}

// TestResolveListenAddr_UnparseablePortEnv keeps the flag default when the
// env value is not an integer.
func TestResolveListenAddr_UnparseablePortEnv(t *testing.T) {
	t.Setenv("VOXDOCS_HOST", "")
	t.Setenv("VOXDOCS_PORT", "not-a-port")

	_, port := resolveListenAddr(NewServeCmd())
	if port != 5001 {
		t.Errorf("bad env port: want default 5001, got %d", port)
	}
}
