package segment

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
)

// Writer persists snapshots into a data directory.
type Writer struct {
	dataDir string
	logger  *slog.Logger
}

// NewWriter creates a Writer that writes snapshots into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{
		dataDir: dataDir,
		logger:  slog.Default().With("component", "segment-writer"),
	}
}

// Write atomically creates <version>.hsnap and then points CURRENT at it.
// Both files are written to a .tmp sibling first and renamed on success.
// It returns the path of the snapshot file.
func (w *Writer) Write(snap *index.Snapshot) (string, error) {
	if snap.Version == "" {
		return "", fmt.Errorf("snapshot has no version")
	}
	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot payload: %w", err)
	}
	payload := encoder.EncodeAll(raw, nil)
	header := Header{
		Magic:        MagicBytes,
		Version:      FormatVersion,
		DocCount:     uint32(snap.DocCount()),
		TermCount:    uint32(snap.Terms()),
		Dimension:    uint32(snap.Dimension()),
		CreatedAt:    snap.BuiltAt.UnixNano(),
		PayloadSize:  uint64(len(payload)),
		RawSize:      uint64(len(raw)),
		PayloadCRC32: crc32.ChecksumIEEE(payload),
	}

	name := snap.Version + Extension
	finalPath := filepath.Join(w.dataDir, name)
	if err := writeAtomic(finalPath, header.marshal(), payload); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", name, err)
	}
	if err := writeAtomic(filepath.Join(w.dataDir, CurrentFile), []byte(name+"\n")); err != nil {
		return "", fmt.Errorf("updating CURRENT: %w", err)
	}
	w.logger.Info("snapshot written",
		"path", finalPath,
		"documents", header.DocCount,
		"terms", header.TermCount,
		"raw_bytes", header.RawSize,
		"compressed_bytes", header.PayloadSize,
	)
	return finalPath, nil
}

// Prune removes all but the newest keep snapshot files. The snapshot named
// by CURRENT is never removed.
func (w *Writer) Prune(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	entries, err := os.ReadDir(w.dataDir)
	if err != nil {
		return 0, fmt.Errorf("reading data directory: %w", err)
	}
	current, _ := readCurrent(w.dataDir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	removed := 0
	for i, name := range names {
		if i < keep || name == current {
			continue
		}
		if err := os.Remove(filepath.Join(w.dataDir, name)); err != nil {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
		w.logger.Debug("old snapshot removed", "snapshot", name)
	}
	return removed, nil
}

func writeAtomic(path string, chunks ...[]byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	for _, c := range chunks {
		if _, err := f.Write(c); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
