package model

// DsMode mirrors the driver-station mode reported in the wire protocol.
type DsMode string

const (
	DsModeTeleop DsMode = "Teleop"
	DsModeTest   DsMode = "Test"
	DsModeAuto   DsMode = "Auto"
)

// StationStatus is the result of validating a connection's station
// correctness (spec §4.4.2).
type StationStatus string

const (
	StationGood    StationStatus = "Good"
	StationBad     StationStatus = "Bad"
	StationWaiting StationStatus = "Waiting"
)

// DriverStationReport is a row in the "ds" table, keyed by team, expiring
// after 2 seconds of no updates (spec §3).
type DriverStationReport struct {
	Team           int     `json:"team"`
	RobotPing      bool    `json:"robot_ping"`
	RioPing        bool    `json:"rio_ping"`
	RadioPing      bool    `json:"radio_ping"`
	BatteryVoltage float64 `json:"battery_voltage"`
	Estop          bool    `json:"estop"`
	Mode           DsMode  `json:"mode"`
	PktsSent       int     `json:"pkts_sent"`
	PktsLost       int     `json:"pkts_lost"`
	RttMillis      int     `json:"rtt"`
	ActualStation  string  `json:"actual_station,omitempty"`
}
