//go:build linux || darwin || freebsd

// Package health probes storage media before the logs mutate them.
package health

import "golang.org/x/sys/unix"

// Usage returns the total and used bytes of the filesystem holding path.
func Usage(path string) (total, used uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	total = uint64(st.Blocks) * bsize
	free := uint64(st.Bfree) * bsize
	if free > total {
		free = total
	}
	return total, total - free, nil
}
