// Package sessionlog provides the per-flight log on removable storage.
//
// Layout under the mount point:
//
//	AeroSense/flight_NNNN.csv   one CSV file per flight
//	flight_index.txt            number,start,end,count,filename per ended flight
//	aerosense_config.txt        key=value counters, rewritten wholesale
//
// At most one flight is open. Flight numbers are never reused: on open the
// last allocated number is reconciled from the counters file, the index and
// the files present on the card. A flight left open by a power loss is
// closed into the index the next time the card is loaded.
//
// Deleting a flight removes its file but keeps its index line; listings
// mark such entries missing and VerifyIntegrity reports them.
package sessionlog
