// Package ringlog provides the fixed-capacity ring log on internal storage.
//
// Records are written at slot*RecordSize in sensor_data.bin. Once the ring
// is full every append overwrites the oldest record. The cursors, the
// lifetime count and the logging mode live in a small binary block,
// data_config.bin, protected by a CRC32 and rewritten wholesale according
// to the configured FlushPolicy.
//
// Modes:
//
//   - Stopped: appends are ignored
//   - Active: appends are stored
//   - DownloadMode: a ground station is reading the ring; appends are ignored
//
// Sequence ids are strictly increasing for the lifetime of the medium. A
// Clear resets the ring but keeps the lifetime count and the last issued id.
package ringlog
