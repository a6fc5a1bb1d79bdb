package driverstation

import (
	"net"

	"github.com/GrappleRobotics/jms/internal/model"
)

// teamByIP derives the team number implied by a driver station's source
// address (spec §4.4.2/§6.1): IPv4 "10.HI.LO.X" encodes team = HI*100+LO.
// The second boolean reports whether addr was recognised as the admin
// network (10.0.100.x), in which case occupancy is always accepted.
func teamByIP(addr net.Addr) (team int, admin bool, ok bool) {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return 0, false, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, false, false
	}
	if v4[0] != 10 {
		return 0, false, false
	}
	hi, lo := int(v4[1]), int(v4[2])
	if hi == 0 && lo == 100 {
		return 0, true, true
	}
	return hi*100 + lo, false, true
}

// validateStation computes a connection's station correctness (spec
// §4.4.2) from its claimed team number, its source address, and the
// current alliance station assignments.
func validateStation(team int, addr net.Addr, stations []model.AllianceStation) model.StationStatus {
	var desired *model.AllianceStationId
	for _, st := range stations {
		if st.Team != nil && *st.Team == team {
			id := st.Id
			desired = &id
			break
		}
	}

	ipTeam, admin, ok := teamByIP(addr)
	var occupied *model.AllianceStationId
	if admin {
		// Admin network: occupancy is accepted as correct regardless of
		// the desired station, as long as one exists.
		if desired != nil {
			return model.StationGood
		}
		return model.StationWaiting
	}
	if ok {
		for _, st := range stations {
			if st.Team != nil && *st.Team == ipTeam {
				id := st.Id
				occupied = &id
				break
			}
		}
	}

	if desired == nil || occupied == nil {
		return model.StationWaiting
	}
	if *desired == *occupied {
		return model.StationGood
	}
	return model.StationBad
}

// describeAddr renders a net.Addr's host portion for logging, stripping
// the port so log lines read "10.1.2.3" rather than "10.1.2.3:54321".
func describeAddr(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
