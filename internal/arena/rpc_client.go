package arena

import (
	"context"
	"time"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/model"
)

// SignalTimeout and GeneratorTimeout are the caller-imposed RPC timeouts
// from spec §4.1/§5: 200 ms for arena signals, 1 s for slower operations
// like match loading.
const (
	SignalTimeout    = 200 * time.Millisecond
	GeneratorTimeout = time.Second
)

// Client is the RPC-side handle other services use to drive the arena
// without a direct in-process reference to it (spec §4.2.4).
type Client struct {
	ps bus.PubSub
}

func NewClient(ps bus.PubSub) *Client { return &Client{ps: ps} }

func (c *Client) Signal(ctx context.Context, sig model.ArenaSignal, source string) error {
	env, err := bus.Call(ctx, c.ps, model.RPCTopicArena, MethodSignal, signalRequestPayload{Signal: sig, Source: source}, SignalTimeout)
	if err != nil {
		return err
	}
	return bus.DecodeResponse(env, MethodSignal, &okResponse{})
}

func (c *Client) LoadMatch(ctx context.Context, matchId string) error {
	env, err := bus.Call(ctx, c.ps, model.RPCTopicArena, MethodLoadMatch, matchIdPayload{MatchId: matchId}, GeneratorTimeout)
	if err != nil {
		return err
	}
	return bus.DecodeResponse(env, MethodLoadMatch, &okResponse{})
}

func (c *Client) UnloadMatch(ctx context.Context) error {
	env, err := bus.Call(ctx, c.ps, model.RPCTopicArena, MethodUnloadMatch, struct{}{}, GeneratorTimeout)
	if err != nil {
		return err
	}
	return bus.DecodeResponse(env, MethodUnloadMatch, &okResponse{})
}

func (c *Client) InstallHook(ctx context.Context, hook model.ArenaHookDB) error {
	env, err := bus.Call(ctx, c.ps, model.RPCTopicArena, MethodInstallHook, hook, GeneratorTimeout)
	if err != nil {
		return err
	}
	return bus.DecodeResponse(env, MethodInstallHook, &okResponse{})
}
