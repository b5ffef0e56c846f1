// Package segment persists snapshots as .hsnap files: a fixed 64-byte
// little-endian header followed by a zstd-compressed JSON payload.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	MagicBytes    uint32 = 0x48534E50
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	// MaxRawSize bounds the uncompressed payload a reader will allocate.
	MaxRawSize uint64 = 4 << 30
	Extension            = ".hsnap"
	CurrentFile          = "CURRENT"
)

var (
	// ErrCorruptSnapshot covers bad magic, unsupported versions, checksum
	// mismatches and undecodable payloads.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrNoSnapshot means the data directory has no CURRENT pointer.
	ErrNoSnapshot = errors.New("no snapshot")
)

// Header is the fixed-size prefix of every snapshot file.
//
//	0:4   magic
//	4:8   format version
//	8:12  document count
//	12:16 term count
//	16:20 embedding dimension
//	24:32 created-at, unix nanoseconds
//	32:40 compressed payload size
//	40:48 uncompressed payload size
//	48:52 crc32 (IEEE) of the compressed payload
type Header struct {
	Magic        uint32
	Version      uint32
	DocCount     uint32
	TermCount    uint32
	Dimension    uint32
	CreatedAt    int64
	PayloadSize  uint64
	RawSize      uint64
	PayloadCRC32 uint32
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.DocCount)
	binary.LittleEndian.PutUint32(b[12:16], h.TermCount)
	binary.LittleEndian.PutUint32(b[16:20], h.Dimension)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[32:40], h.PayloadSize)
	binary.LittleEndian.PutUint64(b[40:48], h.RawSize)
	binary.LittleEndian.PutUint32(b[48:52], h.PayloadCRC32)
	return b
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptSnapshot, len(b))
	}
	h := Header{
		Magic:        binary.LittleEndian.Uint32(b[0:4]),
		Version:      binary.LittleEndian.Uint32(b[4:8]),
		DocCount:     binary.LittleEndian.Uint32(b[8:12]),
		TermCount:    binary.LittleEndian.Uint32(b[12:16]),
		Dimension:    binary.LittleEndian.Uint32(b[16:20]),
		CreatedAt:    int64(binary.LittleEndian.Uint64(b[24:32])),
		PayloadSize:  binary.LittleEndian.Uint64(b[32:40]),
		RawSize:      binary.LittleEndian.Uint64(b[40:48]),
		PayloadCRC32: binary.LittleEndian.Uint32(b[48:52]),
	}
	if h.Magic != MagicBytes {
		return Header{}, fmt.Errorf("%w: bad magic bytes %x", ErrCorruptSnapshot, h.Magic)
	}
	if h.Version != FormatVersion {
		return Header{}, fmt.Errorf("%w: unsupported format version %d", ErrCorruptSnapshot, h.Version)
	}
	if h.RawSize == 0 || h.RawSize > MaxRawSize {
		return Header{}, fmt.Errorf("%w: uncompressed size %d out of range", ErrCorruptSnapshot, h.RawSize)
	}
	return h, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("segment: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxRawSize))
	if err != nil {
		panic("segment: zstd decoder initialization failed: " + err.Error())
	}
}
