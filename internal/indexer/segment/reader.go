package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
)

// Open reads and validates the snapshot file at path.
func Open(path string) (*index.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptSnapshot, err)
	}
	header, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	payload, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot payload: %w", err)
	}
	if uint64(len(payload)) != header.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorruptSnapshot, len(payload), header.PayloadSize)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != header.PayloadCRC32 {
		return nil, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", ErrCorruptSnapshot, sum, header.PayloadCRC32)
	}
	raw, err := decoder.DecodeAll(payload, make([]byte, 0, header.RawSize))
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing payload: %v", ErrCorruptSnapshot, err)
	}
	if uint64(len(raw)) != header.RawSize {
		return nil, fmt.Errorf("%w: payload decompressed to %d bytes, header says %d", ErrCorruptSnapshot, len(raw), header.RawSize)
	}
	var snap index.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrCorruptSnapshot, err)
	}
	if uint32(len(snap.DocIDs)) != header.DocCount {
		return nil, fmt.Errorf("%w: payload has %d documents, header says %d", ErrCorruptSnapshot, len(snap.DocIDs), header.DocCount)
	}
	snap.Prepare()
	slog.Default().With("component", "segment-reader").Info("snapshot loaded",
		"path", path,
		"version", snap.Version,
		"documents", snap.DocCount(),
		"terms", snap.Terms(),
	)
	return &snap, nil
}

// OpenLatest opens the snapshot named by dataDir/CURRENT.
func OpenLatest(dataDir string) (*index.Snapshot, error) {
	name, err := readCurrent(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dataDir, name))
}

// ReadHeader returns the validated header of the snapshot at path without
// decoding the payload.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, b); err != nil {
		return Header{}, fmt.Errorf("%w: reading header: %v", ErrCorruptSnapshot, err)
	}
	return parseHeader(b)
}

func readCurrent(dataDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, CurrentFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w in %s", ErrNoSnapshot, dataDir)
		}
		return "", fmt.Errorf("reading CURRENT: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: CURRENT holds invalid name %q", ErrCorruptSnapshot, name)
	}
	return name, nil
}
