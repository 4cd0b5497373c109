package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"pkt.systems/crust/internal/appconfig"
)

func newTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("PS2", "")
	return filepath.Join(dir, "config", "crust", "config.yaml")
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

func TestRootSubcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "config": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected root command to include %s", name)
		}
	}
	for _, name := range []string{"command", "debug", "config"} {
		if root.Flags().Lookup(name) == nil && root.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("expected flag --%s", name)
		}
	}
}

func TestCommandString(t *testing.T) {
	newTestEnv(t)
	out, errOut, err := runCmd(t, "-c", "echo hello world; echo again")
	if err != nil {
		t.Fatalf("run: %v (stderr %q)", err, errOut)
	}
	if out != "hello world\nagain\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCommandStringExitStops(t *testing.T) {
	newTestEnv(t)
	out, _, err := runCmd(t, "-c", "echo one; exit; echo two")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "one\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestScriptFile(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "script.crust")
	if err := os.WriteFile(path, []byte("echo one\n\necho two\n"), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out, _, err := runCmd(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "one\ntwo\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestScriptFileWinsOverCommand(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "script.crust")
	if err := os.WriteFile(path, []byte("echo from-file"), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out, _, err := runCmd(t, "-c", "echo from-flag", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "from-file\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestUnreadableScript(t *testing.T) {
	newTestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.crust")
	_, errOut, err := runCmd(t, missing)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if !strings.HasPrefix(errOut, "-crust: "+missing+": ") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestScriptParseErrorFails(t *testing.T) {
	newTestEnv(t)
	out, errOut, err := runCmd(t, "-c", "echo ok; sleep 1 & echo late")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if out != "" {
		t.Fatalf("nothing should run on a parse error, got %q", out)
	}
	if !strings.Contains(errOut, "expected separator after background marker") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestScriptCommandFailureSucceeds(t *testing.T) {
	newTestEnv(t)
	out, errOut, err := runCmd(t, "-c", "cd /definitely/not/here; echo after")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "after\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.HasPrefix(errOut, "-crust: cd: /definitely/not/here: ") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestDebugEchoesScript(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "script.crust")
	if err := os.WriteFile(path, []byte("echo hi"), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out, _, err := runCmd(t, "-dd", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "Debug mode is on\noperating on file " + path + "\necho hi\nhi\n"
	if out != want {
		t.Fatalf("unexpected output %q, want %q", out, want)
	}
}

func TestConfigInit(t *testing.T) {
	path := newTestEnv(t)
	out, _, err := runCmd(t, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if out != "wrote "+path+"\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, _, err := runCmd(t, "config", "init"); err == nil {
		t.Fatalf("expected error for existing config")
	}
	if _, _, err := runCmd(t, "config", "init", "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	if _, err := appconfig.Load(path); err != nil {
		t.Fatalf("load written config: %v", err)
	}
}

func TestConfigTOTP(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "crust.yaml")
	out, _, err := runCmd(t, "--config", path, "config", "totp", "--no-qr")
	if err != nil {
		t.Fatalf("config totp: %v", err)
	}
	match := regexp.MustCompile(`(?m)^totp_secret: ([A-Z2-7]+)$`).FindStringSubmatch(out)
	if match == nil {
		t.Fatalf("no secret in output %q", out)
	}
	if !strings.Contains(out, "otpauth://totp/") {
		t.Fatalf("no otpauth url in output %q", out)
	}
	cfg, err := appconfig.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SSH.TOTPSecret != match[1] {
		t.Fatalf("stored secret %q, printed %q", cfg.SSH.TOTPSecret, match[1])
	}
}

func TestVersion(t *testing.T) {
	out, _, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) == "" || strings.Count(out, "\n") != 1 {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestNewSuggesterDisabled(t *testing.T) {
	if s := newSuggester(t.Context(), appconfig.SuggestConfig{}); s != nil {
		t.Fatalf("expected no suggester when disabled, got %T", s)
	}
	t.Setenv("GEMINI_API_KEY", "")
	cfg := appconfig.SuggestConfig{Enabled: true, APIKeyEnv: "GEMINI_API_KEY", Model: "m", MaxTokens: 1, TimeoutSeconds: 1}
	if s := newSuggester(t.Context(), cfg); s != nil {
		t.Fatalf("expected no suggester without api key, got %T", s)
	}
}

func TestNewSSHServerFromConfig(t *testing.T) {
	newTestEnv(t)
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.SSH.TOTPSecret = "JBSWY3DPEHPK3PXP"
	server := newSSHServer(cfg)
	if server.Addr != cfg.SSH.Addr || server.HostKeyPath != cfg.SSH.HostKeyPath || server.HomeDir != cfg.SSH.HomeDir {
		t.Fatalf("server not built from config: %+v", server)
	}
	if server.TOTPSecret != cfg.SSH.TOTPSecret {
		t.Fatalf("totp secret not carried")
	}
	if server.Shell.Prompt != cfg.Prompt {
		t.Fatalf("prompt %q, want %q", server.Shell.Prompt, cfg.Prompt)
	}
}
