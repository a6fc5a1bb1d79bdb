// Package protocol implements the driver-station wire codecs (spec §6.1):
// the UDP status datagram sent by each team's driver station, the UDP
// control packet sent back by the field, and the length-prefixed TCP
// frame format used for handshake/station-info exchange. All three are
// big-endian fixed layouts with no ecosystem library covering this exact
// bespoke protocol, so encoding/binary is used directly — the DESIGN.md
// ledger records this as the one concern left on the standard library
// because no example repo or ecosystem package implements a
// competition-specific framing like this one.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Ds2FmsMode is the mode decoded from the low two bits of a DS->FMS UDP
// datagram's status byte.
type Ds2FmsMode int

const (
	Ds2FmsModeTeleop Ds2FmsMode = iota
	Ds2FmsModeTest
)

// Ds2Fms is the decoded fixed header plus recognised TLV tags of one
// DS->FMS UDP datagram (spec §6.1).
type Ds2Fms struct {
	Sequence       uint16
	Estop          bool
	RobotLinked    bool
	RadioLinked    bool
	RioLinked      bool
	Enabled        bool
	Mode           Ds2FmsMode
	Team           uint16
	BatteryVolts   float64
	RadioStrength  *uint8
	RadioBandwidth *uint16
	CommsLost      *uint16
	CommsSent      *uint16
	CommsAvgTripMs *uint8
	LaptopBattery  *uint8
	LaptopCPU      *uint8
	RobotRadioStrength  *uint8
	RobotRadioBandwidth *uint16
}

const (
	tagFieldRadio  = 0x00
	tagComms       = 0x01
	tagLaptop      = 0x02
	tagRobotRadio  = 0x03
)

// DecodeDs2Fms parses one DS->FMS UDP datagram per spec §6.1. It is
// tolerant of unknown trailing tags (skipped by length) but returns an
// error if the fixed header or a recognised tag's payload is truncated.
func DecodeDs2Fms(buf []byte) (Ds2Fms, error) {
	if len(buf) < 8 {
		return Ds2Fms{}, fmt.Errorf("protocol: ds2fms datagram too short (%d bytes)", len(buf))
	}

	var out Ds2Fms
	out.Sequence = binary.BigEndian.Uint16(buf[0:2])
	// buf[2] is the comms protocol version, ignored per spec.
	status := buf[3]
	out.Estop = status&0x80 != 0
	out.RobotLinked = status&0x20 != 0
	out.RadioLinked = status&0x10 != 0
	out.RioLinked = status&0x08 != 0
	out.Enabled = status&0x04 != 0
	switch status & 0x03 {
	case 1:
		out.Mode = Ds2FmsModeTest
	default:
		out.Mode = Ds2FmsModeTeleop
	}
	out.Team = binary.BigEndian.Uint16(buf[4:6])
	out.BatteryVolts = float64(buf[6]) + float64(buf[7])/256.0

	tags := buf[8:]
	for len(tags) > 0 {
		tagLen := int(tags[0])
		if tagLen == 0 || len(tags) < tagLen+1 {
			return Ds2Fms{}, fmt.Errorf("protocol: ds2fms truncated tag (declared len %d, %d bytes remain)", tagLen, len(tags)-1)
		}
		id := tags[1]
		payload := tags[2 : tagLen+1]
		if err := out.applyTag(id, payload); err != nil {
			return Ds2Fms{}, err
		}
		tags = tags[tagLen+1:]
	}
	return out, nil
}

func (d *Ds2Fms) applyTag(id byte, payload []byte) error {
	switch id {
	case tagFieldRadio:
		if len(payload) < 3 {
			return fmt.Errorf("protocol: field radio tag too short")
		}
		strength := payload[0]
		bw := binary.BigEndian.Uint16(payload[1:3])
		d.RadioStrength = &strength
		d.RadioBandwidth = &bw
	case tagComms:
		if len(payload) < 5 {
			return fmt.Errorf("protocol: comms tag too short")
		}
		lost := binary.BigEndian.Uint16(payload[0:2])
		sent := binary.BigEndian.Uint16(payload[2:4])
		avg := payload[4]
		d.CommsLost = &lost
		d.CommsSent = &sent
		d.CommsAvgTripMs = &avg
	case tagLaptop:
		if len(payload) < 2 {
			return fmt.Errorf("protocol: laptop tag too short")
		}
		battery := payload[0]
		cpu := payload[1]
		d.LaptopBattery = &battery
		d.LaptopCPU = &cpu
	case tagRobotRadio:
		if len(payload) < 3 {
			return fmt.Errorf("protocol: robot radio tag too short")
		}
		strength := payload[0]
		bw := binary.BigEndian.Uint16(payload[1:3])
		d.RobotRadioStrength = &strength
		d.RobotRadioBandwidth = &bw
	}
	// Unrecognised tag ids are skipped by the caller's length accounting.
	return nil
}
