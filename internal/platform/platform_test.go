package platform

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	got := Detect()
	switch runtime.GOOS {
	case "darwin":
		if got != MacOS {
			t.Errorf("Detect() = %v, want %v", got, MacOS)
		}
	case "linux":
		if got != Linux {
			t.Errorf("Detect() = %v, want %v", got, Linux)
		}
	default:
		if got != Unknown {
			t.Errorf("Detect() = %v, want %v", got, Unknown)
		}
	}
}

func TestMacOSInfo(t *testing.T) {
	info := getMacOSInfo("/Users/bob", "bob")
	if info.OS != MacOS || info.HomeDir != "/Users/bob" || info.Username != "bob" {
		t.Errorf("info = %+v", info)
	}
	want := map[string]bool{"/": true, "/System": true, "/etc": true}
	for _, p := range info.ProtectedPaths {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("ProtectedPaths = %v, missing %v", info.ProtectedPaths, want)
	}
}

func TestLinuxProtectedPaths(t *testing.T) {
	info := getLinuxInfo("/home/alice", "alice")
	want := map[string]bool{"/": true, "/etc": true, "/run": true}
	for _, p := range info.ProtectedPaths {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("ProtectedPaths = %v, missing %v", info.ProtectedPaths, want)
	}
}
