package exiftool

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"camera-raw-previews/internal/logging"

	"github.com/kballard/go-shellquote"
)

// ErrToolNotFound is returned when no usable ExifTool executable exists.
var ErrToolNotFound = errors.New("exiftool not found")

const (
	bundledBinary = "exiftool.bin"
	bundledScript = "exiftool"
)

// LocateConfig controls how Locate searches for the tool.
type LocateConfig struct {
	// Command is an explicit command line, e.g. "/usr/bin/exiftool" or
	// "perl /opt/exiftool/exiftool". It is split with shell word rules.
	Command string

	// BundleDir is a directory holding a bundled distribution: a static
	// exiftool.bin for linux/x86 and the plain exiftool perl script.
	BundleDir string

	// LookPath resolves a program name. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// GOOS and GOARCH default to the running platform.
	GOOS   string
	GOARCH string
}

// Locate returns the command words used to run ExifTool.
//
// The search order is: the explicit Command, the bundled static binary
// (linux/x86 only), exiftool on PATH, then perl running the bundled script.
func Locate(cfg LocateConfig) ([]string, error) {
	lookPath := cfg.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	goos, goarch := cfg.GOOS, cfg.GOARCH
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}

	if strings.TrimSpace(cfg.Command) != "" {
		words, err := shellquote.Split(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("invalid exiftool command %q: %w", cfg.Command, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("%w: empty command", ErrToolNotFound)
		}
		bin, err := lookPath(words[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, words[0], err)
		}
		words[0] = bin
		logging.Debug("exiftool: using configured command %s", shellquote.Join(words...))
		return words, nil
	}

	if cfg.BundleDir != "" && goos == "linux" && isX86(goarch) {
		bin := filepath.Join(cfg.BundleDir, bundledBinary)
		if ensureExecutable(bin) {
			logging.Debug("exiftool: using bundled binary %s", bin)
			return []string{bin}, nil
		}
	}

	if bin, err := lookPath("exiftool"); err == nil {
		logging.Debug("exiftool: using %s from PATH", bin)
		return []string{bin}, nil
	}

	if cfg.BundleDir != "" {
		script := filepath.Join(cfg.BundleDir, bundledScript)
		if info, err := os.Stat(script); err == nil && !info.IsDir() {
			perl, err := lookPath("perl")
			if err != nil {
				return nil, fmt.Errorf("%w: no perl executable for %s", ErrToolNotFound, script)
			}
			logging.Debug("exiftool: using %s %s", perl, script)
			return []string{perl, script}, nil
		}
	}

	return nil, ErrToolNotFound
}

func isX86(goarch string) bool {
	return goarch == "amd64" || goarch == "386"
}

// ensureExecutable reports whether path is an executable regular file,
// setting the execute bit when the file is writable but not yet executable.
func ensureExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if info.Mode().Perm()&0o111 != 0 {
		return true
	}
	if err := os.Chmod(path, 0o744); err != nil {
		logging.Warn("exiftool: bundled binary %s is not executable: %v", path, err)
		return false
	}
	return true
}
