package model

// JmsComponent is the heartbeat record every service publishes at a fixed
// interval (spec §3/§6.4). Consumers compute liveness as
// now - last_tick < timeout_ms without needing a second round trip.
type JmsComponent struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	TimeoutMs int64  `json:"timeout_ms"`
	LastTick  Millis `json:"last_tick"`
}

// Live reports whether the heartbeat is still fresh.
func (c JmsComponent) Live(now Millis) bool {
	age := now.Time().Sub(c.LastTick.Time())
	return age.Milliseconds() < c.TimeoutMs
}
