package index

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"kitcat/pkg/object"
)

const (
	indexMagic   = "DIRC"
	indexVersion = 2

	headerLen     = 12
	entryFixedLen = 62 // 40 bytes metadata + 20 byte hash + 2 byte flags
	trailerLen    = sha1.Size
)

// Encode serializes entries into the DIRC v2 binary format: a 12-byte
// header, each entry padded with NULs to an 8-byte boundary, and a SHA-1
// checksum of everything before it as the trailer.
func Encode(entries []Entry) ([]byte, error) {
	entries = Normalize(entries)

	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	writeU32(&buf, indexVersion)
	writeU32(&buf, uint32(len(entries)))

	for _, e := range entries {
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("encode index entry %q: %w", e.Path, err)
		}
		writeU32(&buf, e.CtimeSec)
		writeU32(&buf, e.CtimeNsec)
		writeU32(&buf, e.MtimeSec)
		writeU32(&buf, e.MtimeNsec)
		writeU32(&buf, e.Dev)
		writeU32(&buf, e.Ino)
		writeU32(&buf, e.Mode)
		writeU32(&buf, e.UID)
		writeU32(&buf, e.GID)
		writeU32(&buf, e.Size)
		buf.Write(raw)
		var fb [2]byte
		binary.BigEndian.PutUint16(fb[:], e.Flags)
		buf.Write(fb[:])

		buf.WriteString(e.Path)
		buf.WriteByte(0)

		entrySize := entryFixedLen + len(e.Path) + 1
		for pad := (8 - entrySize%8) % 8; pad > 0; pad-- {
			buf.WriteByte(0)
		}
	}

	sum := sha1.Sum(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// Decode parses a DIRC index payload, verifying the trailer checksum.
// Payloads that do not start with the binary magic fall back to the
// legacy "hash path" line format that predates the binary index.
func Decode(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < headerLen || string(data[:4]) != indexMagic {
		return decodeLegacy(data)
	}

	version := binary.BigEndian.Uint32(data[4:8])
	if version != indexVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	if len(data) < headerLen+trailerLen {
		return nil, fmt.Errorf("%w: short payload", ErrCorrupt)
	}

	body := data[:len(data)-trailerLen]
	want := data[len(data)-trailerLen:]
	sum := sha1.Sum(body)
	if !bytes.Equal(sum[:], want) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	count := binary.BigEndian.Uint32(data[8:12])
	entries := make([]Entry, 0, count)
	off := headerLen
	for i := uint32(0); i < count; i++ {
		if off+entryFixedLen > len(body) {
			return nil, fmt.Errorf("%w: truncated entry %d", ErrCorrupt, i)
		}
		e := Entry{
			CtimeSec:  binary.BigEndian.Uint32(body[off : off+4]),
			CtimeNsec: binary.BigEndian.Uint32(body[off+4 : off+8]),
			MtimeSec:  binary.BigEndian.Uint32(body[off+8 : off+12]),
			MtimeNsec: binary.BigEndian.Uint32(body[off+12 : off+16]),
			Dev:       binary.BigEndian.Uint32(body[off+16 : off+20]),
			Ino:       binary.BigEndian.Uint32(body[off+20 : off+24]),
			Mode:      binary.BigEndian.Uint32(body[off+24 : off+28]),
			UID:       binary.BigEndian.Uint32(body[off+28 : off+32]),
			GID:       binary.BigEndian.Uint32(body[off+32 : off+36]),
			Size:      binary.BigEndian.Uint32(body[off+36 : off+40]),
			Hash:      object.HashFromRaw(body[off+40 : off+60]),
			Flags:     binary.BigEndian.Uint16(body[off+60 : off+62]),
		}
		off += entryFixedLen

		nul := bytes.IndexByte(body[off:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: unterminated path in entry %d", ErrCorrupt, i)
		}
		e.Path = string(body[off : off+nul])

		entrySize := entryFixedLen + nul + 1
		off += nul + 1 + (8-entrySize%8)%8
		if off > len(body) {
			return nil, fmt.Errorf("%w: truncated padding in entry %d", ErrCorrupt, i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeLegacy parses the pre-binary "hash path" text format, one entry
// per line. Metadata is absent, so status falls back to content hashing
// for these entries.
func decodeLegacy(data []byte) ([]Entry, error) {
	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		hash, path, ok := strings.Cut(line, " ")
		if !ok || len(hash) != 40 {
			return nil, fmt.Errorf("%w: bad legacy line %q", ErrCorrupt, line)
		}
		entries = append(entries, Entry{
			Mode:  0o100644,
			Hash:  object.Hash(hash),
			Flags: MakeFlags(path, StageNormal),
			Path:  path,
		})
	}
	return Normalize(entries), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
