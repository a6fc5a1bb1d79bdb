package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
)

const (
	TagTeamNumber = 0x18
	TagStationInfo = 0x19
)

// StationInfoStatus is the wire encoding of model.StationStatus carried in
// the FMS->DS station-info TCP tag.
type StationInfoStatus uint8

const (
	StationInfoGood    StationInfoStatus = 0
	StationInfoBad     StationInfoStatus = 1
	StationInfoWaiting StationInfoStatus = 2
)

// Frame is one length-prefixed TCP tag (spec §6.1): len:u16, id:u8,
// payload[len-1]. Multiple frames may appear back to back in one TCP
// packet; ReadFrame consumes exactly one.
type Frame struct {
	Id      uint8
	Payload []byte
}

// ReadFrame reads exactly one length-prefixed frame from r, blocking until
// the full frame has arrived or the connection errors.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	var lenBuf [2]byte
	if _, err := readFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	if length == 0 {
		return Frame{}, fmt.Errorf("protocol: tcp frame declared zero length")
	}
	body := make([]byte, length)
	if _, err := readFull(r, body); err != nil {
		return Frame{}, err
	}
	return Frame{Id: body[0], Payload: body[1:]}, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteFrame serialises f as a length-prefixed TCP frame.
func WriteFrame(f Frame) []byte {
	buf := make([]byte, 2+1+len(f.Payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(1+len(f.Payload)))
	buf[2] = f.Id
	copy(buf[3:], f.Payload)
	return buf
}

// DecodeTeamNumberFrame extracts the team number from a DS->FMS 0x18 frame.
func DecodeTeamNumberFrame(f Frame) (uint16, error) {
	if f.Id != TagTeamNumber {
		return 0, fmt.Errorf("protocol: expected team-number frame (0x%02x), got 0x%02x", TagTeamNumber, f.Id)
	}
	if len(f.Payload) < 2 {
		return 0, fmt.Errorf("protocol: team-number frame too short")
	}
	return binary.BigEndian.Uint16(f.Payload[0:2]), nil
}

// EncodeStationInfoFrame builds the FMS->DS 0x19 station-info frame.
func EncodeStationInfoFrame(stationId uint8, status StationInfoStatus) Frame {
	return Frame{Id: TagStationInfo, Payload: []byte{stationId, byte(status)}}
}
