// Package sessionlog provides the per-flight log on removable storage.
package sessionlog

import (
	"strconv"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

// Header is the first line of every flight file.
var Header = []string{
	"Timestamp", "RecordID",
	"Temp", "Humidity", "Pressure", "VOC",
	"CO2", "CH4", "CO", "O3", "NO2", "NH3", "CO_MQ137",
	"Latitude", "Longitude", "Altitude", "Satellites", "GPS_Fix",
}

// FormatRecord renders rec in Header order. GPS columns are zero-filled
// when the fix is invalid.
func FormatRecord(rec domain.LogRecord) []string {
	s := rec.Snapshot
	row := make([]string, 0, len(Header))
	row = append(row,
		strconv.FormatUint(uint64(rec.Timestamp), 10),
		strconv.FormatUint(uint64(rec.SequenceID), 10),
	)
	for _, v := range []int32{
		s.Temperature, s.Humidity, s.Pressure, s.VOCIndex,
		s.CO2, s.Methane, s.CarbonMonoxide,
		s.Ozone, s.NO2, s.Ammonia, s.AmmoniaCO,
	} {
		row = append(row, strconv.FormatInt(int64(v), 10))
	}

	gps := s.GPS
	if !gps.Valid {
		gps = domain.GPSFix{}
	}
	row = append(row,
		strconv.FormatFloat(gps.Latitude, 'f', 6, 64),
		strconv.FormatFloat(gps.Longitude, 'f', 6, 64),
		strconv.FormatFloat(float64(gps.Altitude), 'f', 2, 32),
		strconv.FormatUint(uint64(gps.Satellites), 10),
		strconv.FormatUint(uint64(gps.FixType), 10),
	)
	return row
}
