package driverstation

import (
	"testing"

	"github.com/GrappleRobotics/jms/internal/driverstation/protocol"
	"github.com/GrappleRobotics/jms/internal/model"
)

func testConnection() *connection {
	return &connection{sequence: 0}
}

func stationId() *model.AllianceStationId {
	return &model.AllianceStationId{Alliance: model.AllianceRed, Station: 2}
}

func TestBuildControlPacketEnabledDuringAuto(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchAuto}
	st := &model.AllianceStation{Id: *stationId()}

	pkt := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), st)
	if !pkt.Enabled {
		t.Fatalf("expected enabled=true during auto with arena ok and no estop")
	}
	if pkt.Mode != protocol.Fms2DsModeAuto {
		t.Fatalf("Mode = %v, want Auto", pkt.Mode)
	}
}

func TestBuildControlPacketDisabledWhenArenaStale(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchAuto}
	st := &model.AllianceStation{Id: *stationId()}

	pkt := c.buildControlPacket(false, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), st)
	if pkt.Enabled {
		t.Fatalf("expected enabled=false when arena heartbeat is stale")
	}
}

func TestBuildControlPacketEstopForcesDisabledAndEstopBit(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchTeleop}
	st := &model.AllianceStation{Id: *stationId()}

	pkt := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaEstop}, match, nil, stationId(), st)
	if pkt.Enabled {
		t.Fatalf("expected enabled=false under global estop")
	}
	if !pkt.Estop {
		t.Fatalf("expected Estop bit set under global estop")
	}
}

func TestBuildControlPacketStationEstopLatches(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchTeleop}
	st := &model.AllianceStation{Id: *stationId(), Estop: true}

	pkt := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), st)
	if pkt.Enabled {
		t.Fatalf("expected enabled=false with a per-station estop latched")
	}
	if !pkt.Estop {
		t.Fatalf("expected Estop bit set from the station latch")
	}
}

func TestBuildControlPacketAstopDuringAutoDisablesUnlessStationAstopCleared(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchAuto}

	latched := &model.AllianceStation{Id: *stationId(), Astop: true}
	pkt := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), latched)
	if pkt.Enabled {
		t.Fatalf("expected astop (station.Astop=true) to disable during auto")
	}

	clear := &model.AllianceStation{Id: *stationId(), Astop: false}
	pkt2 := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), clear)
	if !pkt2.Enabled {
		t.Fatalf("expected enabled=true once station.Astop is cleared")
	}
}

func TestBuildControlPacketBypassedStationNeverEnabled(t *testing.T) {
	c := testConnection()
	match := &model.SerialisedLoadedMatch{State: model.MatchTeleop}
	st := &model.AllianceStation{Id: *stationId(), Bypass: true, Astop: true}

	pkt := c.buildControlPacket(true, model.ArenaState{Kind: model.ArenaMatchPlay}, match, nil, stationId(), st)
	if pkt.Enabled {
		t.Fatalf("expected a bypassed station to never be enabled")
	}
}

func TestTournamentLevelMapping(t *testing.T) {
	cases := map[model.MatchType]protocol.TournamentLevel{
		model.MatchQualification: protocol.TournamentQualification,
		model.MatchPlayoff:       protocol.TournamentPlayoff,
		model.MatchFinal:         protocol.TournamentFinal,
	}
	for in, want := range cases {
		if got := tournamentLevel(in); got != want {
			t.Errorf("tournamentLevel(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestWireStationByteNilIsZero(t *testing.T) {
	if got := wireStationByte(nil); got != 0 {
		t.Fatalf("wireStationByte(nil) = %d, want 0", got)
	}
}
