// Package record turns filesystem paths into cache records and back.
//
// Records are canonical absolute paths: symlinks resolved, no "." or ".."
// elements. Two spellings of the same directory therefore dedup to one
// cache entry.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/dvd/pkg/fs"
)

// ErrNotFound is returned by [Canonicalize] when the path does not exist.
var ErrNotFound = errors.New("path does not exist")

// Kind classifies what a record currently points at.
type Kind uint8

const (
	KindMissing Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "missing"
	}
}

// Canonicalize resolves path against workDir and evaluates symlinks.
// The path must exist.
func Canonicalize(fsys fs.FS, path, workDir string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	resolved, err := fsys.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	return filepath.Clean(resolved), nil
}

// Classify reports whether path is a file, a directory or gone.
// Permission errors and the like are returned; a missing path is not an
// error.
func Classify(fsys fs.FS, path string) (Kind, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return KindMissing, nil
		}

		return KindMissing, err
	}

	if info.IsDir() {
		return KindDir, nil
	}

	return KindFile, nil
}

// Display shortens paths under home to "~" or "~/rest".
// home must be canonical for the comparison to match.
func Display(path, home string) string {
	if home == "" || home == "/" {
		return path
	}

	home = strings.TrimSuffix(home, string(filepath.Separator))

	if path == home {
		return "~"
	}

	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rest
	}

	return path
}

// KindFilter returns a predicate keeping records whose current [Kind] is one
// of kinds. Records that cannot be classified are dropped. With no kinds the
// predicate is nil, which keeps everything.
func KindFilter(fsys fs.FS, kinds ...Kind) func([]byte) bool {
	if len(kinds) == 0 {
		return nil
	}

	return func(rec []byte) bool {
		kind, err := Classify(fsys, string(rec))
		if err != nil {
			return false
		}

		for _, want := range kinds {
			if kind == want {
				return true
			}
		}

		return false
	}
}
