// Package domain defines the core domain models for AeroSense.
package domain

import (
	"encoding/binary"
	"math"
)

// Record layout constants.
//
// Binary layout (little-endian):
//
//	[seq:4][ts:4][validity:1]
//	[temp:4][hum:4][press:4][voc:4][co2:4][ch4:4][co:4][o3:4][no2:4][nh3:4][co_mq137:4]
//	[lat:8][lon:8][alt:4][rel_alt:4][sats:1][fix:1][hdop:2][gps_valid:1]
//	[checksum:2]
const (
	// RecordSize is the encoded size of a LogRecord in bytes.
	RecordSize = 84

	// checksumOffset is where the checksum starts; it covers bytes [0, checksumOffset).
	checksumOffset = RecordSize - 2
)

// LogRecord is a captured snapshot plus metadata and an integrity checksum.
type LogRecord struct {
	SequenceID uint32         `json:"sequence_id"`
	Timestamp  uint32         `json:"timestamp"`
	Validity   ValidityFlags  `json:"validity"`
	Snapshot   SensorSnapshot `json:"snapshot"`
	Checksum   uint16         `json:"checksum"`
}

// Capture builds a record around snapshot and computes its checksum.
func Capture(snapshot SensorSnapshot, sequenceID, timestamp uint32) LogRecord {
	validity := FlagsAll
	if !snapshot.GPS.Valid {
		validity &^= FlagGPS
	}

	rec := LogRecord{
		SequenceID: sequenceID,
		Timestamp:  timestamp,
		Validity:   validity,
		Snapshot:   snapshot,
	}
	rec.Checksum = rec.ComputeChecksum()
	return rec
}

// Verify reports whether the stored checksum matches the record contents.
func Verify(rec LogRecord) bool {
	return rec.ComputeChecksum() == rec.Checksum
}

// ComputeChecksum returns the 16-bit wrapping byte sum of every encoded field
// except the checksum itself.
func (r LogRecord) ComputeChecksum() uint16 {
	var buf [RecordSize]byte
	r.encode(buf[:])
	return sum16(buf[:checksumOffset])
}

// MarshalBinary encodes the record into its fixed binary layout.
func (r LogRecord) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	r.encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes a record without verifying it.
func (r *LogRecord) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return ErrCorruptRecord
	}

	le := binary.LittleEndian
	r.SequenceID = le.Uint32(data[0:])
	r.Timestamp = le.Uint32(data[4:])
	r.Validity = ValidityFlags(data[8])

	s := &r.Snapshot
	off := 9
	for _, p := range s.channels() {
		*p = int32(le.Uint32(data[off:]))
		off += 4
	}

	s.GPS.Latitude = math.Float64frombits(le.Uint64(data[53:]))
	s.GPS.Longitude = math.Float64frombits(le.Uint64(data[61:]))
	s.GPS.Altitude = math.Float32frombits(le.Uint32(data[69:]))
	s.GPS.RelativeAltitude = math.Float32frombits(le.Uint32(data[73:]))
	s.GPS.Satellites = data[77]
	s.GPS.FixType = data[78]
	s.GPS.HDOP = le.Uint16(data[79:])
	s.GPS.Valid = data[81] != 0

	r.Checksum = le.Uint16(data[checksumOffset:])
	return nil
}

func (r LogRecord) encode(buf []byte) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:], r.SequenceID)
	le.PutUint32(buf[4:], r.Timestamp)
	buf[8] = byte(r.Validity)

	s := r.Snapshot
	off := 9
	for _, p := range s.channels() {
		le.PutUint32(buf[off:], uint32(*p))
		off += 4
	}

	le.PutUint64(buf[53:], math.Float64bits(s.GPS.Latitude))
	le.PutUint64(buf[61:], math.Float64bits(s.GPS.Longitude))
	le.PutUint32(buf[69:], math.Float32bits(s.GPS.Altitude))
	le.PutUint32(buf[73:], math.Float32bits(s.GPS.RelativeAltitude))
	buf[77] = s.GPS.Satellites
	buf[78] = s.GPS.FixType
	le.PutUint16(buf[79:], s.GPS.HDOP)
	if s.GPS.Valid {
		buf[81] = 1
	} else {
		buf[81] = 0
	}

	le.PutUint16(buf[checksumOffset:], r.Checksum)
}

// channels returns the integer channels in wire order.
func (s *SensorSnapshot) channels() [11]*int32 {
	return [11]*int32{
		&s.Temperature, &s.Humidity, &s.Pressure, &s.VOCIndex,
		&s.CO2, &s.Methane, &s.CarbonMonoxide,
		&s.Ozone, &s.NO2, &s.Ammonia, &s.AmmoniaCO,
	}
}

func sum16(b []byte) uint16 {
	var sum uint16
	for _, c := range b {
		sum += uint16(c)
	}
	return sum
}
