// Package library lists, deletes and archives the audio files kept under the
// data root.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"voicemix/audio"
	"voicemix/logger"
)

var (
	ErrOutsideRoot = errors.New("path is outside the data root")
	ErrNotAudio    = errors.New("not an audio file")
	ErrNoFiles     = errors.New("no files to archive")
)

// Entry is one audio file.
type Entry struct {
	// Path is absolute.
	Path string
	// User is the per-user subfolder, empty for flat folders.
	User     string
	Name     string
	Size     int64
	Duration time.Duration
	ModTime  time.Time
}

// ArchiveName is "user/file" or just "file".
func (e Entry) ArchiveName() string {
	if e.User == "" {
		return e.Name
	}
	return e.User + "/" + e.Name
}

// Library is rooted at the data directory.
type Library struct {
	root   string
	prober audio.Prober
	logger *slog.Logger
}

// New roots a library at dir. prober may be nil, in which case durations
// are left at zero.
func New(root string, prober audio.Prober) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Library{root: abs, prober: prober, logger: logger.WithComponent("library")}, nil
}

func (l *Library) Root() string { return l.root }

// List returns the audio files in folder. Files directly in the folder and
// one level of per-user subfolders are included, sorted by archive name.
func (l *Library) List(ctx context.Context, folder string) ([]Entry, error) {
	dir := filepath.Join(l.root, folder)
	if _, err := l.contain(dir); err != nil {
		return nil, err
	}

	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipDir
			}
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		depth := strings.Count(rel, string(filepath.Separator))
		if d.IsDir() {
			if depth >= 1 {
				return fs.SkipDir
			}
			return nil
		}
		if !audio.IsAudioFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		e := Entry{Path: path, Name: d.Name(), Size: info.Size(), ModTime: info.ModTime()}
		if depth == 1 {
			e.User = filepath.Base(filepath.Dir(path))
		}
		e.Duration = l.duration(ctx, path)
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.ArchiveName(), b.ArchiveName())
	})
	return entries, nil
}

func (l *Library) duration(ctx context.Context, path string) time.Duration {
	if l.prober == nil {
		return 0
	}
	info, err := l.prober.Probe(ctx, path)
	if err != nil {
		l.logger.Debug("Could not probe file", slog.String("path", path), slog.Any("error", err))
		return 0
	}
	return info.Duration
}

// contain resolves path and checks it sits strictly inside the root.
func (l *Library) contain(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// Delete removes one audio file inside the root.
func (l *Library) Delete(path string) error {
	abs, err := l.contain(path)
	if err != nil {
		return err
	}
	if !audio.IsAudioFile(abs) {
		return fmt.Errorf("%w: %s", ErrNotAudio, path)
	}
	if err := os.Remove(abs); err != nil {
		return err
	}
	l.logger.Info("Deleted file", slog.String("path", abs))
	return nil
}

// Zip writes entries into a zip archive on w.
func Zip(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return ErrNoFiles
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, e); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

// ZipFile writes entries to a new archive at path.
func ZipFile(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Zip(f, entries); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func addFile(zw *zip.Writer, e Entry) error {
	src, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.Path, err)
	}
	defer src.Close()

	// Audio is already compressed.
	dst, err := zw.CreateHeader(&zip.FileHeader{
		Name:     e.ArchiveName(),
		Method:   zip.Store,
		Modified: e.ModTime,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// Select keeps the entries whose archive name or file name is in names. An
// empty names keeps everything.
func Select(entries []Entry, names []string) []Entry {
	if len(names) == 0 {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if slices.Contains(names, e.ArchiveName()) || slices.Contains(names, e.Name) {
			out = append(out, e)
		}
	}
	return out
}
