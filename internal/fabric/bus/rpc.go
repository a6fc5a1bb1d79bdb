package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GrappleRobotics/jms/internal/telemetry"
)

// ErrRPCTimeout is returned by Call when no reply arrives before the
// caller-imposed deadline (spec §4.1: "RPC timeouts are the caller's
// responsibility").
var ErrRPCTimeout = errors.New("bus: rpc call timed out")

// Envelope is the wire format for both the request and the response side
// of the direct/RPC exchange (spec §4.1): a method name, an opaque
// game-specific-or-service-specific payload, and the correlation
// plumbing. Both "...Request{method, data}" and "...Response{method,
// data}" enums from the spec are this same envelope shape — the
// distinction is only which topic it travels on.
type Envelope struct {
	CorrelationId string          `json:"correlation_id"`
	ReplyTo       string          `json:"reply_to,omitempty"`
	Method        string          `json:"method"`
	Data          json.RawMessage `json:"data"`
}

// replyTopic derives a private, per-call reply channel from the
// correlation id, so the responder's reply is routed back to exactly the
// caller that asked, never broadcast.
func replyTopic(correlationId string) string {
	return "reply." + correlationId
}

// Call publishes a request envelope on requestTopic and blocks until a
// reply with the same correlation id arrives on the private reply topic,
// or timeout elapses. The reply subscription is established before the
// request is published, so there is no window in which a fast responder's
// reply could be missed.
func Call(ctx context.Context, ps PubSub, requestTopic, method string, payload any, timeout time.Duration) (env Envelope, callErr error) {
	start := time.Now()
	telemetry.Metrics.RPCCallsSent.Inc()
	defer func() {
		telemetry.Metrics.RPCLatency.Record(time.Since(start))
		if callErr != nil {
			telemetry.Metrics.RPCCallErrors.Inc()
		}
	}()

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("bus call %s: marshal request: %w", method, err)
	}

	correlationId := uuid.NewString()
	replyT := replyTopic(correlationId)

	sub, err := ps.Subscribe(ctx, replyT)
	if err != nil {
		return Envelope{}, fmt.Errorf("bus call %s: subscribe reply: %w", method, err)
	}
	defer sub.Close()

	req := Envelope{CorrelationId: correlationId, ReplyTo: replyT, Method: method, Data: data}
	reqData, err := json.Marshal(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("bus call %s: marshal envelope: %w", method, err)
	}
	if err := ps.Publish(ctx, requestTopic, reqData); err != nil {
		return Envelope{}, fmt.Errorf("bus call %s: publish: %w", method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-timer.C:
			return Envelope{}, fmt.Errorf("%w: method=%s after %s", ErrRPCTimeout, method, timeout)
		case msg, ok := <-sub.C():
			if !ok {
				return Envelope{}, fmt.Errorf("%w: method=%s reply subscription closed", ErrRPCTimeout, method)
			}
			var resp Envelope
			if err := json.Unmarshal(msg.Payload, &resp); err != nil {
				continue // malformed frame on our private topic: ignore and keep waiting
			}
			if resp.CorrelationId != correlationId {
				continue
			}
			return resp, nil
		}
	}
}

// Handler processes one request envelope and returns the response method
// name and payload to publish back.
type Handler func(ctx context.Context, method string, data json.RawMessage) (respMethod string, respData any, err error)

// Serve subscribes to requestTopic and dispatches every request to handler
// sequentially on the calling goroutine, publishing the response to the
// request's reply-to topic. It runs until ctx is cancelled or the
// subscription errors.
func Serve(ctx context.Context, ps PubSub, requestTopic string, handler Handler) error {
	sub, err := ps.Subscribe(ctx, requestTopic)
	if err != nil {
		return fmt.Errorf("bus serve %s: subscribe: %w", requestTopic, err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C():
			if !ok {
				return fmt.Errorf("bus serve %s: subscription closed", requestTopic)
			}
			var req Envelope
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				continue // malformed request frame: drop and keep serving
			}
			respMethod, respData, handleErr := handler(ctx, req.Method, req.Data)
			if req.ReplyTo == "" {
				continue // fire-and-forget request, no reply expected
			}
			data, err := json.Marshal(respData)
			if err != nil {
				data = json.RawMessage("null")
			}
			resp := Envelope{CorrelationId: req.CorrelationId, Method: respMethod, Data: data}
			if handleErr != nil {
				errStr := handleErr.Error()
				resp.Method = "Error"
				errPayload, _ := json.Marshal(struct {
					Method string `json:"method"`
					Error  string `json:"error"`
				}{Method: respMethod, Error: errStr})
				resp.Data = errPayload
			}
			respData2, err := json.Marshal(resp)
			if err != nil {
				continue
			}
			if err := ps.Publish(ctx, req.ReplyTo, respData2); err != nil {
				continue
			}
		}
	}
}

// ErrTypeMismatch is returned by typed per-method client helpers when the
// responder replies with a different method/variant than was requested
// (spec §4.1).
var ErrTypeMismatch = errors.New("bus: rpc response type mismatch")

// DecodeResponse unmarshals env.Data into out, after checking that
// env.Method matches wantMethod. Used by generated-style per-method client
// helpers (see internal/arena/rpc_client.go).
func DecodeResponse(env Envelope, wantMethod string, out any) error {
	if env.Method == "Error" {
		var errPayload struct {
			Method string `json:"method"`
			Error  string `json:"error"`
		}
		if jsonErr := json.Unmarshal(env.Data, &errPayload); jsonErr == nil && errPayload.Error != "" {
			return errors.New(errPayload.Error)
		}
		return errors.New("bus: rpc returned an error response")
	}
	if env.Method != wantMethod {
		return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, wantMethod, env.Method)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("bus: decode response %s: %w", wantMethod, err)
	}
	return nil
}
