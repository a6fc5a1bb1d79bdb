package driverstation

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/GrappleRobotics/jms/internal/driverstation/protocol"
	"github.com/GrappleRobotics/jms/internal/fabric/component"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

// Server owns the TCP listener and the shared UDP socket for the driver
// station service (spec §4.4). Every accepted TCP connection becomes one
// connection actor; inbound UDP datagrams are decoded once here and
// filtered out to whichever actor owns the reporting team, mirroring the
// teacher's fanout.Server broadcast-with-filter shape.
type Server struct {
	tcpPort int
	udpPort int
	store   kv.Store
	cfg     Config
	log     *slog.Logger

	mu        sync.Mutex
	conns     map[*connection]struct{}
	sharedUDP net.PacketConn

	// malformedLogLimit bounds how often a flood of bad UDP datagrams (a
	// misbehaving or hostile sender on the field network) can spam the
	// log, without affecting the packet-loss counter it accompanies.
	malformedLogLimit *rate.Limiter
}

func NewServer(tcpPort, udpPort int, store kv.Store, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		tcpPort:           tcpPort,
		udpPort:           udpPort,
		store:             store,
		cfg:               cfg,
		log:               log,
		conns:             make(map[*connection]struct{}),
		malformedLogLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Run starts the TCP accept loop and the UDP receive loop and blocks until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	tcpLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.tcpPort))
	if err != nil {
		return fmt.Errorf("driverstation: tcp listen: %w", err)
	}
	defer tcpLn.Close()

	udpLn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", s.udpPort))
	if err != nil {
		return fmt.Errorf("driverstation: udp listen: %w", err)
	}
	defer udpLn.Close()

	s.mu.Lock()
	s.sharedUDP = udpLn
	s.mu.Unlock()

	go component.Heartbeat(ctx, s.store, "driverstation", "Driver Station Relay", "DS")

	go s.acceptLoop(ctx, tcpLn)
	s.udpReceiveLoop(ctx, udpLn)
	return ctx.Err()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("driverstation: accept failed", "error", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()

	c := newConnection(netConn, s.store, s.cfg, s.log)
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reason := c.run(connCtx, s.udpSocket())
	s.log.Info("driver station disconnected", "team", c.team, "reason", reason)
}

// udpSocket returns the shared outbound UDP socket used by every
// connection actor to send control packets, set once by Run before any
// connection can be accepted.
func (s *Server) udpSocket() net.PacketConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharedUDP
}

func (s *Server) udpReceiveLoop(ctx context.Context, udpLn net.PacketConn) {
	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, addr, err := udpLn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("driverstation: udp read failed", "error", err)
			continue
		}
		msg, err := protocol.DecodeDs2Fms(buf[:n])
		if err != nil {
			telemetry.Metrics.DSPacketsLost.Inc()
			if s.malformedLogLimit.Allow() {
				s.log.Debug("driverstation: malformed udp datagram", "from", addr, "error", err)
			}
			continue
		}
		s.broadcast(udpDatagram{team: int(msg.Team), msg: msg})
	}
}

// broadcast delivers one decoded datagram to every live connection actor;
// each actor filters by its own team, following the broadcast-channel-
// with-filter pattern used for the field radio/TCP tag fanout (spec §9).
func (s *Server) broadcast(d udpDatagram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.deliver(d)
	}
}
