// Package driverstation implements the field-side half of the driver
// station wire protocol (spec §4.4): a TCP listener accepting one
// connection per team, a shared UDP socket multiplexed by team number, and
// the per-connection actor that owns each team's view of the match.
package driverstation

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/GrappleRobotics/jms/internal/driverstation/protocol"
	"github.com/GrappleRobotics/jms/internal/fabric/component"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

// DisconnectReason names why a connection's actor terminated (spec §4.4.4).
type DisconnectReason string

const (
	ReasonTCPClosed DisconnectReason = "TCPClosed"
	ReasonTCPFault  DisconnectReason = "TCPFault"
	ReasonTimeout   DisconnectReason = "Timeout"
	ReasonWrongMatch DisconnectReason = "WrongMatch"
)

// udpDatagram is one decoded DS->FMS status frame, tagged with the team the
// payload itself reports, for the broadcast filter in deliver().
type udpDatagram struct {
	team int
	msg  protocol.Ds2Fms
}

// connection is the per-TCP-connection actor (spec §4.4.1), following the
// teacher's GameContext pattern: every external event is a closure
// delivered to inbox and run on this actor's own goroutine, so no field
// below needs a lock.
type connection struct {
	conn       net.Conn
	udpOut     net.PacketConn
	udpPeer    *net.UDPAddr
	store      kv.Store
	stations   kv.Table[model.AllianceStation]
	arenaState kv.Singleton[model.ArenaState]
	matchState kv.Singleton[model.SerialisedLoadedMatch]
	matches    kv.Table[model.Match]
	ds         kv.Table[model.DriverStationReport]
	cfg        Config
	log        *slog.Logger

	team              int
	lastPacketTime    time.Time
	wrongStationCount int
	sequence          uint16

	inbox chan func()
}

// Config is the subset of the process config the driver-station actors
// need, passed in rather than imported from internal/config to keep this
// package independent of the env-loading layer.
type Config struct {
	UDPOutPort     int
	UDPTickInterval time.Duration
	UDPTimeout      time.Duration
	TCPTickInterval time.Duration
	WrongStationMax int
}

func newConnection(conn net.Conn, store kv.Store, cfg Config, log *slog.Logger) *connection {
	return &connection{
		conn:       conn,
		store:      store,
		stations:   kv.NewTable[model.AllianceStation](store, model.PrefixArenaStation),
		arenaState: kv.NewSingleton[model.ArenaState](store, model.KeyArenaState),
		matchState: kv.NewSingleton[model.SerialisedLoadedMatch](store, model.KeyArenaMatch),
		matches:    kv.NewTable[model.Match](store, model.PrefixMatch),
		ds:         kv.NewTable[model.DriverStationReport](store, model.PrefixDriverStation),
		cfg:        cfg,
		log:        log,
		inbox:      make(chan func(), 64),
	}
}

// send enqueues fn to run on the actor's goroutine, non-blocking.
func (c *connection) send(fn func()) {
	select {
	case c.inbox <- fn:
	default:
		telemetry.Metrics.InboxOverflows.Inc()
		c.log.Warn("driver station connection inbox full, dropping event")
	}
}

// run is the actor's event loop. It owns the TCP read loop on a helper
// goroutine (blocking reads can't share a select) and ticks the UDP/TCP
// timers itself; every inbound event funnels back through inbox.
func (c *connection) run(ctx context.Context, udpSocket net.PacketConn) DisconnectReason {
	c.udpOut = udpSocket
	c.lastPacketTime = time.Now()

	telemetry.Metrics.DSConnectionsOpen.Inc()
	defer telemetry.Metrics.DSConnectionsOpen.Dec()
	defer telemetry.Metrics.DSConnectionsClosed.Inc()

	frameErrs := make(chan error, 1)
	go c.readTCPFrames(frameErrs)

	udpTicker := time.NewTicker(c.cfg.UDPTickInterval)
	defer udpTicker.Stop()
	tcpTicker := time.NewTicker(c.cfg.TCPTickInterval)
	defer tcpTicker.Stop()

	reason := ReasonTCPClosed
	for {
		select {
		case <-ctx.Done():
			return ReasonTCPClosed

		case err := <-frameErrs:
			if err != nil {
				reason = ReasonTCPFault
			}
			return reason

		case fn := <-c.inbox:
			fn()

		case <-udpTicker.C:
			if r, done := c.onUDPTick(ctx); done {
				return r
			}

		case <-tcpTicker.C:
			if r, done := c.onTCPTick(ctx); done {
				return r
			}
		}
	}
}

// readTCPFrames blocks reading length-prefixed frames and delivers each to
// the actor's inbox; it signals frameErrs exactly once, on EOF or error.
func (c *connection) readTCPFrames(frameErrs chan<- error) {
	r := bufio.NewReader(c.conn)
	for {
		frame, err := protocol.ReadFrame(r)
		if err != nil {
			frameErrs <- err
			return
		}
		f := frame
		c.send(func() { c.onTCPFrame(f) })
	}
}

func (c *connection) onTCPFrame(f protocol.Frame) {
	if f.Id != protocol.TagTeamNumber {
		return
	}
	team, err := protocol.DecodeTeamNumberFrame(f)
	if err != nil {
		return
	}
	if int(team) != c.team {
		c.log.Info("driver station identified", "team", team)
	}
	c.team = int(team)
	c.udpPeer = c.peerUDPAddr()
}

// peerUDPAddr derives the team's UDP send address from its TCP peer IP,
// at the configured outbound port (spec §4.4.1: "UDP sender (port 1121 at
// the peer IP)").
func (c *connection) peerUDPAddr() *net.UDPAddr {
	host := describeAddr(c.conn.RemoteAddr())
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	return &net.UDPAddr{IP: ip, Port: c.cfg.UDPOutPort}
}

// deliver is called by the server's UDP receive loop (a different
// goroutine) for every decoded datagram; it filters by team before
// handing off to the actor.
func (c *connection) deliver(d udpDatagram) {
	if d.team != c.team {
		return
	}
	c.send(func() { c.onUDPDatagram(d.msg) })
}

func (c *connection) onUDPDatagram(msg protocol.Ds2Fms) {
	c.lastPacketTime = time.Now()
	mode := model.DsModeTeleop
	if msg.Mode == protocol.Ds2FmsModeTest {
		mode = model.DsModeTest
	}
	report := model.DriverStationReport{
		Team:           c.team,
		RobotPing:      msg.RobotLinked,
		RioPing:        msg.RioLinked,
		RadioPing:      msg.RadioLinked,
		BatteryVoltage: msg.BatteryVolts,
		Estop:          msg.Estop,
		Mode:           mode,
	}
	ctx := context.Background()
	ttl := time.Duration(model.DriverStationReportTTLSeconds) * time.Second
	if err := c.ds.SetTTL(ctx, fmt.Sprintf("%d", c.team), report, ttl); err != nil {
		c.log.Warn("persist driver station report failed", "team", c.team, "error", err)
	}
}

// onUDPTick is the 4 Hz UDP send loop (spec §4.4.1).
func (c *connection) onUDPTick(ctx context.Context) (DisconnectReason, bool) {
	if time.Since(c.lastPacketTime) > c.cfg.UDPTimeout {
		telemetry.Metrics.DSUDPTimeouts.Inc()
		return ReasonTimeout, true
	}
	status, stationId := c.stationStatus(ctx)
	if status != model.StationGood || c.udpPeer == nil {
		return "", false
	}

	arenaOK := c.arenaFresh(ctx)
	stateOpt, _ := c.arenaState.GetOptional(ctx)
	var state model.ArenaState
	if stateOpt != nil {
		state = *stateOpt
	}
	match, _ := c.matchState.GetOptional(ctx)
	station := c.lookupStation(ctx, stationId)
	var scheduled *model.Match
	if match != nil {
		if m, err := c.matches.GetOptional(ctx, match.MatchId); err == nil {
			scheduled = m
		}
	}

	pkt := c.buildControlPacket(arenaOK, state, match, scheduled, stationId, station)
	c.sequence++
	data := protocol.EncodeFms2Ds(pkt)
	if _, err := c.udpOut.WriteTo(data, c.udpPeer); err != nil {
		telemetry.Metrics.DSPacketsLost.Inc()
	}
	return "", false
}

// onTCPTick is the 1 Hz station-status evaluation loop (spec §4.4.1).
func (c *connection) onTCPTick(ctx context.Context) (DisconnectReason, bool) {
	status, stationId := c.stationStatus(ctx)
	if status == model.StationGood {
		c.wrongStationCount = 0
	} else {
		c.wrongStationCount++
		if c.wrongStationCount >= c.cfg.WrongStationMax {
			telemetry.Metrics.DSWrongStationDrops.Inc()
			return ReasonWrongMatch, true
		}
	}

	wireStatus := protocol.StationInfoGood
	switch status {
	case model.StationBad:
		wireStatus = protocol.StationInfoBad
	case model.StationWaiting:
		wireStatus = protocol.StationInfoWaiting
	}
	frame := protocol.EncodeStationInfoFrame(wireStationByte(stationId), wireStatus)
	if _, err := c.conn.Write(protocol.WriteFrame(frame)); err != nil {
		return ReasonTCPFault, true
	}
	return "", false
}

func wireStationByte(id *model.AllianceStationId) uint8 {
	if id == nil {
		return 0
	}
	return protocol.StationByte(id.Alliance == model.AllianceBlue, id.Station)
}

// stationStatus validates this connection against the current alliance
// assignments (spec §4.4.2) and returns the occupied station id, if known.
func (c *connection) stationStatus(ctx context.Context) (model.StationStatus, *model.AllianceStationId) {
	stations, err := c.stations.List(ctx)
	if err != nil {
		return model.StationWaiting, nil
	}
	status := validateStation(c.team, c.conn.RemoteAddr(), stations)
	var occupied *model.AllianceStationId
	if ipTeam, admin, ok := teamByIP(c.conn.RemoteAddr()); ok && !admin {
		for _, st := range stations {
			if st.Team != nil && *st.Team == ipTeam {
				id := st.Id
				occupied = &id
				break
			}
		}
	} else {
		for _, st := range stations {
			if st.Team != nil && *st.Team == c.team {
				id := st.Id
				occupied = &id
				break
			}
		}
	}
	return status, occupied
}

func (c *connection) lookupStation(ctx context.Context, id *model.AllianceStationId) *model.AllianceStation {
	if id == nil {
		return nil
	}
	st, err := c.stations.GetOptional(ctx, id.String())
	if err != nil || st == nil {
		return nil
	}
	return st
}

// arenaFresh reports whether the arena service's heartbeat is within its
// timeout window (spec §6.4: driver-station forces enabled=false when the
// arena heartbeat is stale).
func (c *connection) arenaFresh(ctx context.Context) bool {
	statuses, err := component.ListStatus(ctx, c.store)
	if err != nil {
		return false
	}
	for _, s := range statuses {
		if s.Id == "arena" {
			return s.Alive
		}
	}
	return false
}

// buildControlPacket computes the enabled bit and every other field of the
// outbound UDP control packet per spec §4.4.3.
func (c *connection) buildControlPacket(arenaOK bool, state model.ArenaState, match *model.SerialisedLoadedMatch, scheduled *model.Match, stationId *model.AllianceStationId, station *model.AllianceStation) protocol.Fms2Ds {
	cmdEnable := false
	cmdMode := protocol.Fms2DsModeAuto
	if match != nil {
		switch match.State {
		case model.MatchAuto:
			cmdEnable, cmdMode = true, protocol.Fms2DsModeAuto
		case model.MatchPause:
			cmdEnable, cmdMode = false, protocol.Fms2DsModeTeleop
		case model.MatchTeleop:
			cmdEnable, cmdMode = true, protocol.Fms2DsModeTeleop
		default:
			cmdEnable, cmdMode = false, protocol.Fms2DsModeAuto
		}
	}

	estopEffective := state.Kind == model.ArenaEstop
	astopEffective := cmdMode == protocol.Fms2DsModeAuto
	bypass := false
	if station != nil {
		estopEffective = estopEffective || station.Estop
		astopEffective = astopEffective && station.Astop
		bypass = station.Bypass
	} else {
		astopEffective = false
	}

	enabled := !bypass && !(estopEffective || astopEffective) && cmdEnable && arenaOK

	var remaining uint16
	var matchNumber uint16
	level := protocol.TournamentQualification
	if match != nil {
		remaining = uint16(match.Remaining.Duration().Seconds())
	}
	if scheduled != nil {
		matchNumber = uint16(scheduled.Number)
		level = tournamentLevel(scheduled.Type)
	}

	return protocol.Fms2Ds{
		Sequence:         c.sequence,
		Estop:            estopEffective,
		Enabled:          enabled,
		Mode:             cmdMode,
		StationByte:      wireStationByte(stationId),
		Level:            level,
		MatchNumber:      matchNumber,
		PlayNumber:       1,
		Now:              time.Now(),
		RemainingSeconds: remaining,
	}
}

func tournamentLevel(t model.MatchType) protocol.TournamentLevel {
	switch t {
	case model.MatchQualification:
		return protocol.TournamentQualification
	case model.MatchPlayoff:
		return protocol.TournamentPlayoff
	case model.MatchFinal:
		return protocol.TournamentFinal
	default:
		return protocol.TournamentTest
	}
}
