package arena

import (
	"testing"

	"github.com/GrappleRobotics/jms/internal/model"
)

func redStation(physicalEstop bool) model.AllianceStation {
	return model.AllianceStation{Id: model.AllianceStationId{Alliance: model.AllianceRed, Station: 1}, PhysicalEstop: physicalEstop}
}

func TestProcessStationInputsLatchesEstopOutsideAuto(t *testing.T) {
	stations := []model.AllianceStation{redStation(true)}
	changed := processStationInputs(stations, false)
	if len(changed) != 1 {
		t.Fatalf("changed = %v, want one latched station", changed)
	}
	if !stations[0].Estop || stations[0].Astop {
		t.Fatalf("station = %+v, want Estop latched and Astop clear", stations[0])
	}
}

func TestProcessStationInputsLatchesAstopDuringAuto(t *testing.T) {
	stations := []model.AllianceStation{redStation(true)}
	changed := processStationInputs(stations, true)
	if len(changed) != 1 {
		t.Fatalf("changed = %v, want one latched station", changed)
	}
	if !stations[0].Astop || stations[0].Estop {
		t.Fatalf("station = %+v, want Astop latched and Estop clear", stations[0])
	}
}

func TestProcessStationInputsNoopWithoutPhysicalEstop(t *testing.T) {
	stations := []model.AllianceStation{redStation(false)}
	changed := processStationInputs(stations, false)
	if len(changed) != 0 {
		t.Fatalf("changed = %v, want none", changed)
	}
}

func TestProcessStationInputsIdempotentOnceLatched(t *testing.T) {
	stations := []model.AllianceStation{redStation(true)}
	processStationInputs(stations, false)
	changed := processStationInputs(stations, false)
	if len(changed) != 0 {
		t.Fatalf("second pass changed = %v, want none (already latched)", changed)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestNotDSReadySkipsBypassed(t *testing.T) {
	stations := []model.AllianceStation{
		{Id: model.AllianceStationId{Alliance: model.AllianceRed, Station: 1}, DsEthOk: boolPtr(true)},
		{Id: model.AllianceStationId{Alliance: model.AllianceRed, Station: 2}, DsEthOk: boolPtr(false)},
		{Id: model.AllianceStationId{Alliance: model.AllianceRed, Station: 3}, Bypass: true},
		{Id: model.AllianceStationId{Alliance: model.AllianceBlue, Station: 1}}, // nil DsEthOk
	}
	bad := notDSReady(stations)
	if len(bad) != 2 {
		t.Fatalf("notDSReady = %v, want 2 (red2 and blue1, red3 bypassed)", bad)
	}
}

func TestNotDSReadyAllGood(t *testing.T) {
	stations := []model.AllianceStation{
		{Id: model.AllianceStationId{Alliance: model.AllianceRed, Station: 1}, DsEthOk: boolPtr(true)},
	}
	if bad := notDSReady(stations); len(bad) != 0 {
		t.Fatalf("notDSReady = %v, want none", bad)
	}
}
