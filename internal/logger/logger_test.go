package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatorRollsOver(t *testing.T) {
	name := filepath.Join(t.TempDir(), "logs", "hedge.log")
	r := &Rotator{Filename: name, MaxSize: 10, MaxBackups: 2}
	defer r.Close()

	for _, line := range []string{"first-line\n", "second-line\n", "third-line\n", "fourth-line\n"} {
		if _, err := r.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	cur, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(cur)) != "fourth-line" {
		t.Errorf("expected current file to hold the last line, got %q", cur)
	}
	one, _ := os.ReadFile(name + ".1")
	two, _ := os.ReadFile(name + ".2")
	if strings.TrimSpace(string(one)) != "third-line" || strings.TrimSpace(string(two)) != "second-line" {
		t.Errorf("unexpected backups: .1=%q .2=%q", one, two)
	}
	if _, err := os.Stat(name + ".3"); !os.IsNotExist(err) {
		t.Error("expected no more than 2 backups")
	}
}

func TestSetupWithoutFile(t *testing.T) {
	if c := Setup("", 1, 1); c == nil {
		t.Fatal("expected a closer")
	}
}
