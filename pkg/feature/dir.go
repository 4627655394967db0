package feature

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/soundsieve/soundsieve/pkg/fault"
)

// stampLayout orders names chronologically when sorted as strings.
const stampLayout = "20060102_150405"

// Dir is an on-disk sound-feature library. Saved features get names
// of the form <base>_<timestamp>.txt, with a numeric suffix appended
// on collision, so repeated extractions never overwrite each other.
type Dir struct {
	Root string

	now func() time.Time
}

// Entry describes one stored feature.
type Entry struct {
	Name    string // file name without the .txt extension
	Path    string
	ModTime time.Time
}

// NewDir returns a library rooted at root. The directory is created
// on first save.
func NewDir(root string) *Dir {
	return &Dir{Root: root, now: time.Now}
}

// Save stores vec under a unique name derived from base and returns
// the path written.
func (d *Dir) Save(base string, vec Vector) (string, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return "", fault.Wrap(fault.IOError, d.Root, err)
	}
	path := d.uniquePath(base)
	if err := WriteFile(path, vec); err != nil {
		return "", err
	}
	return path, nil
}

// Load resolves name and reads the feature, returning the vector and
// the path it came from.
func (d *Dir) Load(name string) (Vector, string, error) {
	path, err := d.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	vec, err := ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return vec, path, nil
}

// Resolve maps a feature name to a file path. An exact file name
// (with or without the .txt extension) wins; otherwise the newest
// timestamped variant of the name is picked.
func (d *Dir) Resolve(name string) (string, error) {
	exact := name
	if !strings.HasSuffix(exact, ".txt") {
		exact += ".txt"
	}
	path := filepath.Join(d.Root, exact)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	base := sanitize(strings.TrimSuffix(name, ".txt"))
	matches, err := filepath.Glob(filepath.Join(d.Root, base+"_*.txt"))
	if err != nil || len(matches) == 0 {
		return "", fault.New(fault.IOError, "sound feature %q not found in %s", name, d.Root)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// List returns the stored features sorted by name. A missing root
// directory lists as empty.
func (d *Dir) List() ([]Entry, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.IOError, d.Root, err)
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    strings.TrimSuffix(e.Name(), ".txt"),
			Path:    filepath.Join(d.Root, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes the feature file name resolves to.
func (d *Dir) Remove(name string) error {
	path, err := d.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fault.Wrap(fault.IOError, path, err)
	}
	return nil
}

// uniquePath builds <root>/<base>_<stamp>.txt, appending _1, _2, …
// while the name is taken.
func (d *Dir) uniquePath(base string) string {
	stem := fmt.Sprintf("%s_%s", sanitize(base), d.now().Format(stampLayout))
	path := filepath.Join(d.Root, stem+".txt")
	for k := 1; ; k++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path
		}
		path = filepath.Join(d.Root, fmt.Sprintf("%s_%d.txt", stem, k))
	}
}

// sanitize keeps letters, digits, dashes and underscores so feature
// names stay safe as file names.
func sanitize(base string) string {
	if base == "" {
		return "feature"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
