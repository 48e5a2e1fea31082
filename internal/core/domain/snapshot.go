// Package domain defines the core domain models for AeroSense.
package domain

// SensorSnapshot is one reading of every onboard channel, as produced by the
// sensor drivers in a single polling step. Units are the raw driver units.
type SensorSnapshot struct {
	// BME680
	Temperature int32 `json:"temperature"`
	Humidity    int32 `json:"humidity"`
	Pressure    int32 `json:"pressure"`
	VOCIndex    int32 `json:"voc_index"`

	// MH-Z19B
	CO2 int32 `json:"co2"`

	// MQ-4
	Methane int32 `json:"methane"`

	// MQ-7
	CarbonMonoxide int32 `json:"carbon_monoxide"`

	// MQ-131
	Ozone int32 `json:"ozone"`
	NO2   int32 `json:"no2"`

	// MQ-137
	Ammonia   int32 `json:"ammonia"`
	AmmoniaCO int32 `json:"ammonia_co"`

	GPS GPSFix `json:"gps"`
}

// GPSFix is the navigation block reported by the flight controller.
type GPSFix struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Altitude         float32 `json:"altitude"`
	RelativeAltitude float32 `json:"relative_altitude"`
	Satellites       uint8   `json:"satellites"`
	FixType          uint8   `json:"fix_type"`
	HDOP             uint16  `json:"hdop"`
	Valid            bool    `json:"valid"`
}

// ValidityFlags is a bitfield with one bit per sensor group.
type ValidityFlags uint8

const (
	FlagEnvironment ValidityFlags = 1 << iota
	FlagCO2
	FlagMethane
	FlagCarbonMonoxide
	FlagOzone
	FlagAmmonia
	FlagGPS

	// FlagsAll marks every group valid. The top bit is reserved and kept set
	// so a fully valid record matches the 0xFF written by older firmware.
	FlagsAll ValidityFlags = 0xFF
)

// Has reports whether every bit in f is set.
func (v ValidityFlags) Has(f ValidityFlags) bool {
	return v&f == f
}
