package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/nexusmap/internal/testutil"
	"github.com/starford/nexusmap/internal/validate"
)

func TestNewLogger_FansOutToFile(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFile = filepath.Join(t.TempDir(), "logs", "app.log")

	var out bytes.Buffer
	logger, closeLog, err := newLogger(cfg, &out)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hello")
	closeLog()

	data, err := os.ReadFile(cfg.App.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"msg":"hello"`) || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("stdout = %q, file = %q", out.String(), data)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	bad := filepath.Join(dir, "bad.md")
	_ = os.WriteFile(good, []byte(testutil.SampleDocument), 0o644)
	_ = os.WriteFile(bad, []byte("A\n\tB\n"), 0o644)

	cfg := NewDefaultConfig()
	r, err := ValidateFile(good, cfg)
	if err != nil || !r.OK() {
		t.Fatalf("good = %+v, %v", r, err)
	}
	r, err = ValidateFile(bad, cfg)
	if err != nil || !r.Structural {
		t.Fatalf("bad = %+v, %v", r, err)
	}
	if _, err := ValidateFile(filepath.Join(dir, "none.md"), cfg); err == nil {
		t.Error("expected read error")
	}
}

func TestValidateFile_Policies(t *testing.T) {
	p := filepath.Join(t.TempDir(), "flow.md")
	_ = os.WriteFile(p, []byte("A\n  B #flow#\n---\n```tag-store\n{\"groups\":[{\"id\":\"tg-actors\",\"name\":\"Actors\"}],\"tags\":[]}\n```\n"), 0o644)

	missingActor := func(cfg *Config) bool {
		r, err := ValidateFile(p, cfg)
		if err != nil {
			t.Fatal(err)
		}
		for _, is := range r.Issues {
			if is.Code == validate.CodeMissingActorTag {
				return true
			}
		}
		return false
	}

	lenient := NewDefaultConfig()
	if missingActor(lenient) {
		t.Error("default config should not enforce actor tags")
	}
	strict := NewDefaultConfig()
	strict.Engine.Strict()
	if !missingActor(strict) {
		t.Error("strict config should report the missing actor tag")
	}
}
