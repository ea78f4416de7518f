package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/1F47E/go-timereel/pkg/logger"
	"github.com/1F47E/go-timereel/pkg/meta"
)

// DirSource lists image files under Root. Archive roots are walked
// recursively, legacy roots are read flat.
type DirSource struct {
	Root      string
	Recursive bool
	exts      map[string]struct{}
}

func NewDirSource(root string, recursive bool, exts []string) *DirSource {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return &DirSource{Root: filepath.Clean(root), Recursive: recursive, exts: m}
}

func (s *DirSource) Name() string {
	if s.Recursive {
		return s.Root + "/**"
	}
	return s.Root
}

func (s *DirSource) Scan(ctx context.Context) ([]Record, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", s.Root)
	}

	var (
		recs    []Record
		skipped int
	)
	add := func(path, name string) {
		if !s.accepts(name) {
			return
		}
		ts, err := meta.Parse(name)
		if err != nil {
			skipped++
			logger.Scope("gather").Debugf("skip %s: %v", path, err)
			return
		}
		recs = append(recs, Record{Instant: ts, Ref: path})
	}

	if s.Recursive {
		err = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// unreadable subdirectory, keep the rest of the archive
				if d != nil && d.IsDir() && path != s.Root {
					logger.Scope("gather").Warnf("skip dir %s: %v", path, walkErr)
					return filepath.SkipDir
				}
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.Type().IsRegular() {
				add(path, d.Name())
			}
			return nil
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(s.Root)
		for _, d := range entries {
			if d.Type().IsRegular() {
				add(filepath.Join(s.Root, d.Name()), d.Name())
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		logger.Scope("gather").Infof("%s: %d files without a timestamp ignored", s.Name(), skipped)
	}
	return recs, nil
}

func (s *DirSource) accepts(name string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MemSource yields fixed records, used for tests and dry runs.
type MemSource struct {
	Label   string
	Records []Record
}

func (m MemSource) Name() string { return m.Label }

func (m MemSource) Scan(context.Context) ([]Record, error) {
	out := make([]Record, len(m.Records))
	copy(out, m.Records)
	return out, nil
}
