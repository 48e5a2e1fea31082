// Package storage holds what the two AeroSense logs share.
package storage

import (
	"fmt"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

// SyncMode defines when a log makes its state durable.
type SyncMode string

const (
	SyncModeSync  SyncMode = "sync"
	SyncModeBatch SyncMode = "batch"
)

// Default file permissions for everything the logs create.
const (
	DefaultFilePerm = 0o644
	DefaultDirPerm  = 0o755
)

// FlushPolicy decides after how many appends a log flushes.
type FlushPolicy struct {
	Mode  SyncMode
	Every int
}

// SyncPolicy flushes on every append.
func SyncPolicy() FlushPolicy {
	return FlushPolicy{Mode: SyncModeSync, Every: 1}
}

// BatchPolicy flushes every n appends.
func BatchPolicy(n int) FlushPolicy {
	return FlushPolicy{Mode: SyncModeBatch, Every: n}
}

// Due reports whether a flush is due after the given number of appends
// since the last flush.
func (p FlushPolicy) Due(pending int) bool {
	if pending <= 0 {
		return false
	}
	if p.Mode != SyncModeBatch || p.Every <= 1 {
		return true
	}
	return pending >= p.Every
}

// Validate checks the policy.
func (p FlushPolicy) Validate() error {
	switch p.Mode {
	case SyncModeSync, SyncModeBatch:
	default:
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown flush mode %q", p.Mode))
	}
	if p.Every < 1 {
		return domain.ErrInvalidArgument.WithDetails("flush interval must be at least 1")
	}
	return nil
}

// ParseSyncMode parses a configured mode name.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case SyncModeSync, SyncModeBatch:
		return SyncMode(s), nil
	}
	return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown flush mode %q", s))
}
