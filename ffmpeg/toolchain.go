// Package ffmpeg runs the ffmpeg and ffprobe executables as the decode and
// encode backend for clips. Executables are resolved once by Locate and
// passed around as a Toolchain value.
package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	// Exec is the default ffmpeg executable name.
	Exec = "ffmpeg"
	// ProbeExec is the default ffprobe executable name.
	ProbeExec = "ffprobe"
)

// DefaultSearchDirs are checked when an executable is not on PATH.
var DefaultSearchDirs = []string{"/usr/local/bin", "/usr/bin"}

var ErrNotFound = errors.New("executable not found")

// Toolchain holds resolved executable paths. An empty FFprobe means probing
// is unavailable and decoding falls back to the configured layout.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe. Explicit paths win; otherwise PATH is
// searched, then each of searchDirs. ffmpeg is required, ffprobe is not.
func Locate(ffmpegPath, ffprobePath string, searchDirs []string) (Toolchain, error) {
	ffmpegBin, err := resolve(ffmpegPath, Exec, searchDirs)
	if err != nil {
		return Toolchain{}, fmt.Errorf("locating ffmpeg: %w", err)
	}

	ffprobeBin, err := resolve(ffprobePath, ProbeExec, searchDirs)
	if err != nil {
		ffprobeBin = ""
	}

	return Toolchain{FFmpeg: ffmpegBin, FFprobe: ffprobeBin}, nil
}

// Dir returns the directory holding ffmpeg, for tools that want a location
// rather than a binary.
func (t Toolchain) Dir() string {
	if t.FFmpeg == "" {
		return ""
	}
	return filepath.Dir(t.FFmpeg)
}

func (t Toolchain) CanProbe() bool {
	return t.FFprobe != ""
}

func resolve(explicit, name string, searchDirs []string) (string, error) {
	if explicit != "" {
		if isExecutable(explicit) {
			return explicit, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, explicit)
	}

	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}

	for _, dir := range searchDirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func isExecutable(path string) bool {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	return st.Mode().Perm()&0o111 != 0
}
