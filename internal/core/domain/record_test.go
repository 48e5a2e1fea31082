package domain

import (
	"errors"
	"testing"
)

func sampleSnapshot() SensorSnapshot {
	return SensorSnapshot{
		Temperature:    2315,
		Humidity:       4410,
		Pressure:       101325,
		VOCIndex:       87,
		CO2:            415,
		Methane:        1890,
		CarbonMonoxide: 12,
		Ozone:          33,
		NO2:            -4,
		Ammonia:        6,
		AmmoniaCO:      9,
		GPS: GPSFix{
			Latitude:         52.520008,
			Longitude:        13.404954,
			Altitude:         120.5,
			RelativeAltitude: 85.25,
			Satellites:       11,
			FixType:          3,
			HDOP:             90,
			Valid:            true,
		},
	}
}

func TestCapture(t *testing.T) {
	rec := Capture(sampleSnapshot(), 7, 1700000000)

	if rec.SequenceID != 7 {
		t.Errorf("SequenceID = %d, want 7", rec.SequenceID)
	}
	if rec.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", rec.Timestamp)
	}
	if rec.Validity != FlagsAll {
		t.Errorf("Validity = %#x, want %#x", rec.Validity, FlagsAll)
	}
	if !Verify(rec) {
		t.Fatal("Verify() = false for freshly captured record")
	}
}

func TestCapture_InvalidGPSClearsFlag(t *testing.T) {
	snap := sampleSnapshot()
	snap.GPS.Valid = false
	rec := Capture(snap, 1, 0)

	if rec.Validity.Has(FlagGPS) {
		t.Error("GPS flag should be cleared when the fix is invalid")
	}
	if !rec.Validity.Has(FlagEnvironment | FlagCO2 | FlagAmmonia) {
		t.Errorf("non-GPS flags should stay set, got %#x", rec.Validity)
	}
	if !Verify(rec) {
		t.Error("Verify() = false")
	}
}

func TestVerify_DetectsFieldChange(t *testing.T) {
	rec := Capture(sampleSnapshot(), 42, 1234)

	tampered := rec
	tampered.Snapshot.CO2++
	if Verify(tampered) {
		t.Error("Verify() = true after changing a channel")
	}

	tampered = rec
	tampered.SequenceID = 43
	if Verify(tampered) {
		t.Error("Verify() = true after changing the sequence id")
	}
}

func TestMarshalBinary_Layout(t *testing.T) {
	rec := Capture(sampleSnapshot(), 0x01020304, 0x0A0B0C0D)
	buf, err := rec.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if len(buf) != RecordSize {
		t.Fatalf("len = %d, want %d", len(buf), RecordSize)
	}

	// little-endian header
	want := []byte{0x04, 0x03, 0x02, 0x01, 0x0D, 0x0C, 0x0B, 0x0A, 0xFF}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("buf[%d] = %#x, want %#x", i, buf[i], b)
		}
	}
	if buf[77] != 11 || buf[78] != 3 || buf[81] != 1 {
		t.Errorf("gps tail = %v, want sats=11 fix=3 valid=1", buf[77:82])
	}
	if got := uint16(buf[82]) | uint16(buf[83])<<8; got != rec.Checksum {
		t.Errorf("stored checksum = %#x, want %#x", got, rec.Checksum)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	rec := Capture(sampleSnapshot(), 99, 1700000123)
	buf, _ := rec.MarshalBinary()

	var got LogRecord
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if got != rec {
		t.Errorf("roundtrip = %+v, want %+v", got, rec)
	}
	if !Verify(got) {
		t.Error("Verify() = false after roundtrip")
	}
}

func TestUnmarshalBinary_WrongSize(t *testing.T) {
	var rec LogRecord
	err := rec.UnmarshalBinary(make([]byte, RecordSize-1))
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("UnmarshalBinary() error = %v, want ErrCorruptRecord", err)
	}
}

func TestSingleByteFlipDetected(t *testing.T) {
	rec := Capture(sampleSnapshot(), 5, 100)
	buf, _ := rec.MarshalBinary()

	for i := 0; i < checksumOffset; i++ {
		flipped := make([]byte, len(buf))
		copy(flipped, buf)
		flipped[i] ^= 0x5A

		var got LogRecord
		if err := got.UnmarshalBinary(flipped); err != nil {
			t.Fatalf("UnmarshalBinary() error = %v", err)
		}
		if Verify(got) {
			t.Errorf("flip at byte %d not detected", i)
		}
	}
}
