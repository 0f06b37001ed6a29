// Package sheets implements the spreadsheet-analysis agent: a pipeline
// graph that resolves a data file, parses and cleans it, computes
// per-column statistics, and phrases the findings as a reply.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileNotFound is returned when a named file is not in the source.
var ErrFileNotFound = errors.New("file not found in source")

// FileInfo identifies one file in a source.
type FileInfo struct {
	ID      string
	Name    string
	Size    int64
	ModTime time.Time
}

// FileSource lists and downloads data files. Implementations wrap
// whatever holds the files: a local folder, object storage, a drive
// API.
type FileSource interface {
	List(ctx context.Context) ([]FileInfo, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

// FindByName returns the file whose name matches, ignoring case.
// Returns ErrFileNotFound when no entry matches.
func FindByName(ctx context.Context, src FileSource, name string) (FileInfo, error) {
	files, err := src.List(ctx)
	if err != nil {
		return FileInfo{}, fmt.Errorf("listing files: %w", err)
	}
	for _, f := range files {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return FileInfo{}, fmt.Errorf("%w: %s", ErrFileNotFound, name)
}

// DirSource serves files from a local directory. File IDs are the
// file names; subdirectories are not listed.
type DirSource struct {
	dir string
}

// NewDirSource builds a source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List implements FileSource.
func (d *DirSource) List(_ context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			ID:      e.Name(),
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// Download implements FileSource. The ID is reduced to its base name
// so a caller cannot reach outside the directory.
func (d *DirSource) Download(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, filepath.Base(id)))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", id, err)
	}
	return data, nil
}
