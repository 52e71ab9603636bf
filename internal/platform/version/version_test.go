package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	s := Get().String()

	if !strings.Contains(s, Version) {
		t.Errorf("String() = %q, should contain version %q", s, Version)
	}
	if !strings.Contains(s, runtime.Version()) {
		t.Errorf("String() = %q, should contain go version %q", s, runtime.Version())
	}
}
