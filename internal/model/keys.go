package model

// KV key layout (spec §6.2). Centralised here so no service reaches for a
// stringly-typed key literal outside this file.
const (
	KeyArenaState = "arena:state"
	KeyArenaMatch = "arena:match"
	KeyScoreLive  = "score:live"

	PrefixArenaStation = "arena:station"
	PrefixDriverStation = "ds"
	PrefixMatch         = "db:match"
	PrefixScores        = "db:scores"
	PrefixRanking       = "db:ranking"
	PrefixArenaHook     = "db:arena_hook"
	PrefixComponent     = "jms:component"
)

// Bus topics (spec §6.3) and the RPC request topics (spec §4.1).
const (
	TopicArenaStateNew     = "arena.state.new"
	TopicArenaStateHook    = "arena.state.hook"
	TopicArenaScoresPublish = "arena.scores.publish"

	RPCTopicArena = "rpc.arena"
)

// DriverStationReportTTLSeconds is the fixed expiry for ds:<team> rows.
const DriverStationReportTTLSeconds = 2

// ComponentHeartbeatIntervalMillis is how often every service upserts its
// JmsComponent heartbeat row (spec §6.4).
const ComponentHeartbeatIntervalMillis = 500
