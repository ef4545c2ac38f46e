package domain

import "errors"

// Sensor selects one of the two reading channels. The zero value selects
// nothing, meaning all records.
type Sensor string

const (
	SensorRain Sensor = "G"
	SensorGas  Sensor = "M"
)

// ParseSensor maps a query selector onto a Sensor. Unknown values select all
// records, same as the dashboard clients expect.
func ParseSensor(s string) Sensor {
	switch s {
	case "G":
		return SensorRain
	case "M":
		return SensorGas
	}
	return ""
}

// Record is one persisted sensor reading. Records written by the MQTT path
// carry exactly one channel pair; the REST create path tolerates anything
// short of fully empty. Absent fields serialize as null.
type Record struct {
	ID     string   `db:"id" json:"id"`
	Gvalue *float64 `db:"gvalue" json:"Gvalue"`
	Gdate  *string  `db:"gdate" json:"Gdate"`
	Mvalue *float64 `db:"mvalue" json:"Mvalue"`
	Mdate  *string  `db:"mdate" json:"Mdate"`
}

// Fields is the mutable part of a Record, as accepted by create and update.
type Fields struct {
	Gvalue *float64 `json:"Gvalue"`
	Gdate  *string  `json:"Gdate"`
	Mvalue *float64 `json:"Mvalue"`
	Mdate  *string  `json:"Mdate"`
}

// HasRain reports whether the rainfall pair is usable: value present and
// timestamp non-empty.
func (f Fields) HasRain() bool {
	return f.Gvalue != nil && f.Gdate != nil && *f.Gdate != ""
}

// HasGas reports whether the gas pair is usable.
func (f Fields) HasGas() bool {
	return f.Mvalue != nil && f.Mdate != nil && *f.Mdate != ""
}

var (
	// ErrNotFound reports an id with no record behind it.
	ErrNotFound = errors.New("record not found")

	// ErrValidation marks create input rejected before reaching the store.
	ErrValidation = errors.New("invalid sensor data")
)
