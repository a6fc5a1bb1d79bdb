package protocol

import (
	"encoding/binary"
	"time"
)

// Fms2DsMode is the control-packet mode field (spec §6.1, distinct from the
// DS->FMS status mode: Auto is a valid outbound mode, never an inbound one).
type Fms2DsMode uint8

const (
	Fms2DsModeTeleop Fms2DsMode = 0
	Fms2DsModeTest   Fms2DsMode = 1
	Fms2DsModeAuto   Fms2DsMode = 2
)

// TournamentLevel is the wire enum carried in the FMS->DS control packet,
// distinct from model.MatchType only in that it has a stable numeric
// encoding for the byte-oriented protocol.
type TournamentLevel uint8

const (
	TournamentTest          TournamentLevel = 0
	TournamentQualification TournamentLevel = 1
	TournamentPlayoff       TournamentLevel = 2
	TournamentFinal         TournamentLevel = 3
)

// Fms2Ds is the FMS->DS UDP control packet (spec §6.1).
type Fms2Ds struct {
	Sequence         uint16
	Estop            bool
	Enabled          bool
	Mode             Fms2DsMode
	StationByte      uint8 // Red1/2/3=0/1/2, Blue1/2/3=3/4/5
	Level            TournamentLevel
	MatchNumber      uint16
	PlayNumber       uint8
	Now              time.Time
	RemainingSeconds uint16
}

// EncodeFms2Ds renders f as the 22-byte control datagram; no trailing tags
// are defined for the baseline packet.
func EncodeFms2Ds(f Fms2Ds) []byte {
	buf := make([]byte, 22)
	binary.BigEndian.PutUint16(buf[0:2], f.Sequence)
	buf[2] = 0x00

	var control byte
	if f.Estop {
		control |= 0x80
	}
	if f.Enabled {
		control |= 0x04
	}
	control |= byte(f.Mode) & 0x03
	buf[3] = control

	buf[4] = 0x00
	buf[5] = f.StationByte
	buf[6] = byte(f.Level)
	binary.BigEndian.PutUint16(buf[7:9], f.MatchNumber)
	buf[9] = f.PlayNumber

	t := f.Now
	binary.BigEndian.PutUint32(buf[10:14], uint32(t.Nanosecond()/1000))
	buf[14] = byte(t.Second())
	buf[15] = byte(t.Minute())
	buf[16] = byte(t.Hour())
	buf[17] = byte(t.Day())
	buf[18] = byte(t.Month())
	buf[19] = byte(t.Year() - 1900)

	binary.BigEndian.PutUint16(buf[20:22], f.RemainingSeconds)
	return buf
}

// StationByte maps an alliance/station pair to the wire station byte used
// by the FMS->DS control packet: Red1/2/3=0/1/2, Blue1/2/3=3/4/5.
func StationByte(isBlue bool, station int) uint8 {
	if isBlue {
		return uint8(2 + station)
	}
	return uint8(station - 1)
}
