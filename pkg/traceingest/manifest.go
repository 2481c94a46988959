package traceingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const manifestFileName = "manifest.jsonl"

// manifest is the append-only transaction log recording every live
// segment. It is small enough to be read fully into memory on every
// actor command rather than requiring a real Delta Lake
// checkpoint/log-segment scheme.
type manifest struct {
	dir  string
	path string
}

func newManifest(dir string) *manifest {
	return &manifest{dir: dir, path: filepath.Join(dir, manifestFileName)}
}

func (m *manifest) read() ([]segmentEntry, error) {
	f, err := os.Open(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	var entries []segmentEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e segmentEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decoding manifest line: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}
	return entries, nil
}

// append adds one entry to the manifest, making its segment visible to
// readers.
func (m *manifest) append(e segmentEntry) error {
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening manifest for append: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding manifest entry: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("appending manifest entry: %w", err)
	}
	return f.Sync()
}

// swap atomically replaces the manifest contents with entries, via
// write-to-temp-then-rename.
func (m *manifest) swap(entries []segmentEntry) error {
	tmpPath := filepath.Join(m.dir, fmt.Sprintf(".manifest-%s.tmp", uuid.NewString()))
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encoding manifest entry: %w", err)
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing temp manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing temp manifest: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("swapping manifest: %w", err)
	}
	return nil
}
