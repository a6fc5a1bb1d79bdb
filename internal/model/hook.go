package model

// ArenaHookDB is a declarative readiness-gate record a peripheral service
// installs (table "db:arena_hook"): "I must acknowledge this state before
// the arena may proceed" (spec §3/§4.3).
type ArenaHookDB struct {
	Id          string     `json:"id"`
	ComponentId string     `json:"component_id"`
	State       ArenaState `json:"state"`
	TimeoutMs   int64      `json:"timeout_ms"`
}

// HookReply is published on arena.state.hook by the hook owner once it has
// finished (or failed) its work for the gating state.
type HookReply struct {
	Id      string  `json:"id"`
	Failure *string `json:"failure,omitempty"`
}

func (r HookReply) Failed() bool { return r.Failure != nil }
