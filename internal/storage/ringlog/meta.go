// Package ringlog provides the fixed-capacity ring log on internal storage.
package ringlog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Metadata block layout (little-endian):
//
//	[magic:4][version:2][capacity:2][write:2][oldest:2][stored:2][mode:1][reserved:1]
//	[lifetime:4][last_seq:4][started_at:4][crc32:4]
const (
	metaMagic   = "ASRB"
	metaVersion = 1
	metaSize    = 32
)

var (
	errMetaMagic    = errors.New("ringlog: invalid metadata magic")
	errMetaVersion  = errors.New("ringlog: unsupported metadata version")
	errMetaChecksum = errors.New("ringlog: metadata checksum mismatch")
	errMetaSize     = errors.New("ringlog: metadata truncated")
)

// meta is the persisted ring state.
type meta struct {
	Capacity      uint16
	WriteCursor   uint16
	OldestCursor  uint16
	StoredCount   uint16
	Mode          Mode
	LifetimeCount uint32
	LastSequence  uint32
	StartedAt     uint32
}

func (m meta) encode() []byte {
	buf := make([]byte, metaSize)
	le := binary.LittleEndian
	copy(buf[0:4], metaMagic)
	le.PutUint16(buf[4:], metaVersion)
	le.PutUint16(buf[6:], m.Capacity)
	le.PutUint16(buf[8:], m.WriteCursor)
	le.PutUint16(buf[10:], m.OldestCursor)
	le.PutUint16(buf[12:], m.StoredCount)
	buf[14] = byte(m.Mode)
	le.PutUint32(buf[16:], m.LifetimeCount)
	le.PutUint32(buf[20:], m.LastSequence)
	le.PutUint32(buf[24:], m.StartedAt)
	le.PutUint32(buf[28:], crc32.ChecksumIEEE(buf[:28]))
	return buf
}

func decodeMeta(buf []byte) (meta, error) {
	if len(buf) < metaSize {
		return meta{}, errMetaSize
	}
	le := binary.LittleEndian
	if string(buf[0:4]) != metaMagic {
		return meta{}, errMetaMagic
	}
	if le.Uint16(buf[4:]) != metaVersion {
		return meta{}, errMetaVersion
	}
	if crc32.ChecksumIEEE(buf[:28]) != le.Uint32(buf[28:]) {
		return meta{}, errMetaChecksum
	}
	return meta{
		Capacity:      le.Uint16(buf[6:]),
		WriteCursor:   le.Uint16(buf[8:]),
		OldestCursor:  le.Uint16(buf[10:]),
		StoredCount:   le.Uint16(buf[12:]),
		Mode:          Mode(buf[14]),
		LifetimeCount: le.Uint32(buf[16:]),
		LastSequence:  le.Uint32(buf[20:]),
		StartedAt:     le.Uint32(buf[24:]),
	}, nil
}

// consistent reports whether the cursors fit the capacity.
func (m meta) consistent() bool {
	if m.Capacity == 0 {
		return false
	}
	if m.StoredCount > m.Capacity || m.WriteCursor >= m.Capacity || m.OldestCursor >= m.Capacity {
		return false
	}
	if m.StoredCount < m.Capacity && m.OldestCursor != 0 {
		return false
	}
	if (uint32(m.OldestCursor)+uint32(m.StoredCount))%uint32(m.Capacity) != uint32(m.WriteCursor) {
		return false
	}
	return m.Mode <= DownloadMode
}

// advance returns the state after one append.
func (m meta) advance(seq uint32) meta {
	m.WriteCursor = (m.WriteCursor + 1) % m.Capacity
	if m.StoredCount < m.Capacity {
		m.StoredCount++
	} else {
		m.OldestCursor = (m.OldestCursor + 1) % m.Capacity
	}
	m.LifetimeCount++
	m.LastSequence = seq
	return m
}
