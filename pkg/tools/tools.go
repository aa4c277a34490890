// Package tools maps scenes to executable tool bindings. The registry is
// additive: new tools are registered per scene without touching the turn
// state machine. Execution here is simulated; a binding's Execute waits out
// its declared latency and returns a canned result carrying a client action.
package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dexchat/pkg/scene"
)

// Call is one tool invocation within a turn. The ID is unique per call and
// links the start and completion events on the wire.
type Call struct {
	ID   string         `json:"callId"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ClientAction is a typed UI instruction surfaced to the client.
type ClientAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// ResultData is the payload of a completed tool call.
type ResultData struct {
	Message      string        `json:"message"`
	ClientAction *ClientAction `json:"client_action,omitempty"`
}

// Result is the tagged outcome of a tool execution. Status is "success" for
// every binding in this registry; the tag exists so a failure path can be
// added without changing the wire shape.
type Result struct {
	Status string     `json:"status"`
	Data   ResultData `json:"data"`
}

const StatusSuccess = "success"

// Binding declares one executable tool: its name, how to build arguments
// from the user's message, its simulated latency, and its execution.
type Binding struct {
	Tool    string
	Latency time.Duration
	Prepare func(message string) map[string]any
	Execute func(ctx context.Context, call Call) (Result, error)
}

// NewCall builds a Call with a fresh id and prepared arguments.
func (b Binding) NewCall(message string) Call {
	var args map[string]any
	if b.Prepare != nil {
		args = b.Prepare(message)
	}
	return Call{ID: uuid.NewString(), Tool: b.Tool, Args: args}
}

// Registry resolves a scene to its tool binding. Scenes without a binding
// (the text scene) run tool-free turns.
type Registry struct {
	bindings map[scene.Scene]Binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: map[scene.Scene]Binding{}}
}

func (r *Registry) Register(s scene.Scene, b Binding) {
	r.bindings[s] = b
}

func (r *Registry) Lookup(s scene.Scene) (Binding, bool) {
	b, ok := r.bindings[s]
	return b, ok
}

// wait sleeps for the binding's simulated execution latency, honoring
// cancellation.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Default returns the registry with the two built-in bindings. latency is
// the simulated execution time applied to every binding (zero in tests).
func Default(latency time.Duration) *Registry {
	r := NewRegistry()
	r.Register(scene.Swap, Binding{
		Tool:    "create_trade_intent",
		Latency: latency,
		Prepare: func(string) map[string]any {
			return map[string]any{
				"from_token_symbol": "USDT",
				"to_token_symbol":   "ETH",
				"amount":            "100",
				"trade_type":        "spot",
			}
		},
		Execute: func(ctx context.Context, call Call) (Result, error) {
			if err := wait(ctx, latency); err != nil {
				return Result{}, err
			}
			return Result{
				Status: StatusSuccess,
				Data: ResultData{
					Message: "trade intent created",
					ClientAction: &ClientAction{
						Type:   "OPEN_TRADE_WINDOW",
						Params: call.Args,
					},
				},
			}, nil
		},
	})
	r.Register(scene.Deposit, Binding{
		Tool:    "show_deposit_prompt",
		Latency: latency,
		Prepare: func(string) map[string]any {
			return map[string]any{
				"asset":   "USDC",
				"network": "ethereum",
			}
		},
		Execute: func(ctx context.Context, call Call) (Result, error) {
			if err := wait(ctx, latency); err != nil {
				return Result{}, err
			}
			params := map[string]any{
				"network":  "ethereum",
				"address":  "0x9a1fc8c0369d49618ba7ca0e5c9b0a925fd231be",
				"redirect": "/wallet/deposit",
			}
			for k, v := range call.Args {
				params[k] = v
			}
			return Result{
				Status: StatusSuccess,
				Data: ResultData{
					Message: "deposit prompt ready",
					ClientAction: &ClientAction{
						Type:   "SHOW_DEPOSIT_PROMPT",
						Params: params,
					},
				},
			}, nil
		},
	})
	return r
}
