package arena

import (
	"testing"
	"time"

	"github.com/GrappleRobotics/jms/internal/model"
)

func TestHookGateEmptySatisfiesImmediately(t *testing.T) {
	gate := &hookGate{forState: model.StatePrestart(false), enteredAt: model.NowMillis()}
	if got := gate.evaluate(model.NowMillis()); got != hookStatusSatisfied {
		t.Fatalf("evaluate on empty gate = %v, want satisfied", got)
	}
}

func TestHookGatePendingUntilAllReply(t *testing.T) {
	entered := model.NowMillis()
	gate := &hookGate{
		forState:  model.StatePrestart(false),
		enteredAt: entered,
		replies:   map[string]model.HookReply{},
		hooks: []model.ArenaHookDB{
			{Id: "a", TimeoutMs: 10_000},
			{Id: "b", TimeoutMs: 10_000},
		},
	}
	if got := gate.evaluate(entered); got != hookStatusPending {
		t.Fatalf("evaluate with no replies = %v, want pending", got)
	}

	gate.recordReply(model.HookReply{Id: "a"})
	if got := gate.evaluate(entered); got != hookStatusPending {
		t.Fatalf("evaluate with one of two replied = %v, want pending", got)
	}

	gate.recordReply(model.HookReply{Id: "b"})
	if got := gate.evaluate(entered); got != hookStatusSatisfied {
		t.Fatalf("evaluate with both replied = %v, want satisfied", got)
	}
}

func TestHookGateFailedReplyFails(t *testing.T) {
	entered := model.NowMillis()
	failure := "self-test failed"
	gate := &hookGate{
		forState:  model.StateReset(false),
		enteredAt: entered,
		replies:   map[string]model.HookReply{"a": {Id: "a", Failure: &failure}},
		hooks:     []model.ArenaHookDB{{Id: "a", TimeoutMs: 10_000}},
	}
	if got := gate.evaluate(entered); got != hookStatusFailed {
		t.Fatalf("evaluate with a failed reply = %v, want failed", got)
	}
	if gate.failedHook != "a" {
		t.Fatalf("failedHook = %q, want a", gate.failedHook)
	}
}

func TestHookGateTimeout(t *testing.T) {
	entered := model.Millis(time.Now().Add(-time.Hour))
	gate := &hookGate{
		forState:  model.StateReset(false),
		enteredAt: entered,
		replies:   map[string]model.HookReply{},
		hooks:     []model.ArenaHookDB{{Id: "a", TimeoutMs: 1_000}},
	}
	if got := gate.evaluate(model.NowMillis()); got != hookStatusFailed {
		t.Fatalf("evaluate past timeout = %v, want failed", got)
	}
	if gate.failedHook != "a" {
		t.Fatalf("failedHook = %q, want a", gate.failedHook)
	}
}

func TestHookGateNilGateSatisfied(t *testing.T) {
	var gate *hookGate
	if got := gate.evaluate(model.NowMillis()); got != hookStatusSatisfied {
		t.Fatalf("evaluate on nil gate = %v, want satisfied", got)
	}
	gate.recordReply(model.HookReply{Id: "a"}) // must not panic
}
