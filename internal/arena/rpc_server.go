package arena

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/model"
)

// RPC method names exposed on model.RPCTopicArena (spec §4.2.4).
const (
	MethodSignal      = "Signal"
	MethodLoadMatch   = "LoadMatch"
	MethodUnloadMatch = "UnloadMatch"
	MethodInstallHook = "InstallHook"
)

type signalRequestPayload struct {
	Signal model.ArenaSignal `json:"signal"`
	Source string            `json:"source"`
}

type matchIdPayload struct {
	MatchId string `json:"match_id"`
}

type okResponse struct {
	Ok bool `json:"ok"`
}

// ServeRPC runs the arena's direct-exchange responder until ctx is
// cancelled, dispatching each request method to the matching Arena
// operation (spec §4.1/§4.2.4).
func (a *Arena) ServeRPC(ctx context.Context) error {
	return bus.Serve(ctx, a.ps, model.RPCTopicArena, func(ctx context.Context, method string, data json.RawMessage) (string, any, error) {
		switch method {
		case MethodSignal:
			var req signalRequestPayload
			if err := json.Unmarshal(data, &req); err != nil {
				return "", nil, fmt.Errorf("decode %s request: %w", method, err)
			}
			if err := a.Signal(ctx, req.Signal, req.Source); err != nil {
				return "", nil, err
			}
			return MethodSignal, okResponse{Ok: true}, nil

		case MethodLoadMatch:
			var req matchIdPayload
			if err := json.Unmarshal(data, &req); err != nil {
				return "", nil, fmt.Errorf("decode %s request: %w", method, err)
			}
			if err := a.LoadMatch(ctx, req.MatchId); err != nil {
				return "", nil, err
			}
			return MethodLoadMatch, okResponse{Ok: true}, nil

		case MethodUnloadMatch:
			if err := a.UnloadMatch(ctx); err != nil {
				return "", nil, err
			}
			return MethodUnloadMatch, okResponse{Ok: true}, nil

		case MethodInstallHook:
			var hook model.ArenaHookDB
			if err := json.Unmarshal(data, &hook); err != nil {
				return "", nil, fmt.Errorf("decode %s request: %w", method, err)
			}
			if err := a.installHook(ctx, hook); err != nil {
				return "", nil, err
			}
			return MethodInstallHook, okResponse{Ok: true}, nil

		default:
			return "", nil, fmt.Errorf("arena rpc: unknown method %q", method)
		}
	})
}
