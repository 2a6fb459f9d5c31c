package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/focusflow/internal/config"
	"github.com/verte-zerg/focusflow/internal/model"
)

type memSettings map[string]string

func (m memSettings) Setting(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func intPtr(v int) *int {
	return &v
}

func TestResolveDurationsPrecedence(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Set("focus", "50"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	settings := memSettings{
		model.SettingFocusSeconds:      "600",
		model.SettingShortBreakSeconds: "420",
	}
	fileCfg := config.TimerConfig{
		Focus:      intPtr(30),
		ShortBreak: intPtr(10),
		LongBreak:  intPtr(20),
	}

	d, err := resolveDurations(context.Background(), cmd, settings, fileCfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Flag beats setting, setting beats file, file beats default.
	want := model.Durations{Focus: 50 * 60, ShortBreak: 420, LongBreak: 20 * 60}
	if d != want {
		t.Fatalf("durations = %+v, want %+v", d, want)
	}
}

func TestResolveDurationsDefaultsAndBadSettings(t *testing.T) {
	cmd := newRootCmd()
	settings := memSettings{model.SettingLongBreakSeconds: "soon"}
	d, err := resolveDurations(context.Background(), cmd, settings, config.TimerConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if d != model.DefaultDurations() {
		t.Fatalf("durations = %+v", d)
	}

	if _, err := resolveDurations(context.Background(), cmd, memSettings{}, config.TimerConfig{Focus: intPtr(0)}); err == nil {
		t.Fatalf("expected error for zero focus")
	}
}

func TestCurrentScope(t *testing.T) {
	userOverride = ""
	t.Cleanup(func() { userOverride = "" })
	ctx := context.Background()

	scope, label, err := currentScope(ctx, memSettings{})
	if err != nil || scope != model.GuestScope || label != model.GuestScope {
		t.Fatalf("guest scope = %q %q %v", scope, label, err)
	}

	settings := memSettings{
		model.SettingCurrentUser:  "u-1",
		model.SettingCurrentEmail: "ada@example.com",
	}
	scope, label, err = currentScope(ctx, settings)
	if err != nil || scope != model.UserScope("u-1") || label != "ada@example.com" {
		t.Fatalf("user scope = %q %q %v", scope, label, err)
	}

	userOverride = "u-2"
	scope, _, err = currentScope(ctx, settings)
	if err != nil || scope != model.UserScope("u-2") {
		t.Fatalf("override scope = %q %v", scope, err)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if cfg.Timer.Focus != nil || cfg.UI.Theme != nil {
		t.Fatalf("template should leave every value commented out")
	}
}

func TestValidateThemeAndProvider(t *testing.T) {
	if err := validateTheme("light"); err != nil {
		t.Fatalf("light: %v", err)
	}
	if err := validateTheme("solarized"); err == nil {
		t.Fatalf("expected theme error")
	}
	if err := validateProvider("Groq"); err != nil {
		t.Fatalf("groq: %v", err)
	}
	if err := validateProvider("anthropic"); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("yes\n"), &out, "Delete?")
	if err != nil || !ok {
		t.Fatalf("yes = %v %v", ok, err)
	}
	if out.String() != "Delete? [y/N] " {
		t.Fatalf("prompt = %q", out.String())
	}
	ok, err = confirm(strings.NewReader(""), &out, "Delete?")
	if err != nil || ok {
		t.Fatalf("empty = %v %v", ok, err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("[]\n"))
		return err
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[]\n" {
		t.Fatalf("data = %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatFromExt("backup.YML"); got != "yaml" {
		t.Fatalf("format = %q", got)
	}
	if got := formatFromExt("backup.txt"); got != "json" {
		t.Fatalf("format = %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Fatalf("bytes = %q", got)
	}
	if got := formatBytes(3 << 20); got != "3.0 MB" {
		t.Fatalf("bytes = %q", got)
	}
}
