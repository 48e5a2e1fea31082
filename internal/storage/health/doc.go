// Package health probes storage media before the logs mutate them.
//
// A probe checks that the medium is present and survives a scratch
// write/delete roundtrip. The outcome is one of Ready, Removed or Error;
// anything but Ready makes the calling log return
// domain.ErrStorageUnavailable without touching its state.
package health
