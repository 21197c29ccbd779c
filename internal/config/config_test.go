package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"claude,copilot", []string{"claude", "copilot"}},
		{" claude , ,codex ", []string{"claude", "codex"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigsDirOverrideWins(t *testing.T) {
	t.Setenv("RULESYNC_CONFIGS", "/from/env")
	got, err := ConfigsDir("/from/flag")
	if err != nil {
		t.Fatalf("ConfigsDir: %v", err)
	}
	if got != "/from/flag" {
		t.Errorf("ConfigsDir = %q, want /from/flag", got)
	}
}

func TestConfigsDirEnv(t *testing.T) {
	t.Setenv("RULESYNC_CONFIGS", "/from/env")
	got, err := ConfigsDir("")
	if err != nil {
		t.Fatalf("ConfigsDir: %v", err)
	}
	if got != "/from/env" {
		t.Errorf("ConfigsDir = %q, want /from/env", got)
	}
}

func TestConfigsDirHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RULESYNC_CONFIGS", "")
	t.Setenv("RULESYNC_HOME", home)
	if err := os.MkdirAll(filepath.Join(home, "configs"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ConfigsDir("")
	if err != nil {
		t.Fatalf("ConfigsDir: %v", err)
	}
	if got != filepath.Join(home, "configs") {
		t.Errorf("ConfigsDir = %q, want %q", got, filepath.Join(home, "configs"))
	}
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{KeyBackup, "false", false},
		{KeyBackup, "maybe", true},
		{KeyTargets, "claude, codex", false},
		{KeyTargets, " , ", true},
		{KeyConfigsDir, "/srv/configs", false},
		{"colour", "blue", true},
	}
	for _, tt := range tests {
		err := CheckValue(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckValue(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
}

func TestSetWritesConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	Load()

	if err := Set(KeyTargets, "codex,windsurf"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := DefaultTargets(); !reflect.DeepEqual(got, []string{"codex", "windsurf"}) {
		t.Errorf("DefaultTargets = %v", got)
	}
	if _, err := os.Stat(FilePath()); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	if err := Set("colour", "blue"); err == nil {
		t.Error("expected unknown key to be rejected")
	}
}
