// Package chat runs one streaming turn end to end: classify the message,
// stream the answer as paced token events, drive at most one tool call, and
// persist the completed turn as a single message row.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"dexchat/pkg/logger"
	"dexchat/pkg/metrics"
	"dexchat/pkg/scene"
	"dexchat/pkg/store"
	"dexchat/pkg/stream"
	"dexchat/pkg/tools"
)

// Input is one verified turn request. Owner comes from the identity layer,
// never from the client payload.
type Input struct {
	Owner     string
	SessionID string
	Message   string
	Context   json.RawMessage
}

// Controller drives the turn state machine:
//
//	START -> PRETEXT -> [TOOL_CALL -> POSTTEXT]? -> END -> PERSIST -> DONE
//
// with ABORTED reachable from every state. Cancellation is the context
// threaded through Run; it is tested immediately before every emission and
// before the persistence call. Persistence is the commit point: once the
// store write is issued, a late cancellation does not roll it back.
type Controller struct {
	registry   *tools.Registry
	tokenDelay time.Duration
}

func NewController(registry *tools.Registry, tokenDelay time.Duration) *Controller {
	return &Controller{registry: registry, tokenDelay: tokenDelay}
}

type tokenData struct {
	Content string `json:"content"`
}

type toolCompleteData struct {
	Tool     string       `json:"tool"`
	CallID   string       `json:"callId"`
	Duration int64        `json:"duration"`
	Result   tools.Result `json:"result"`
}

type sessionEndData struct {
	MessageID string `json:"message_id"`
}

// Run executes one turn. A non-nil error means the turn aborted without
// persisting anything; on success exactly one message row exists and
// session_end carried its id.
func (c *Controller) Run(ctx context.Context, em stream.Emitter, in Input) error {
	metrics.TurnsStarted.Inc()
	sc := scene.Detect(in.Message)
	logger.Info("turn_started", "session", in.SessionID, "owner", in.Owner, "scene", string(sc))

	emit := func(typ string, data any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := em.Emit(stream.NewEvent(typ, data)); err != nil {
			return err
		}
		metrics.EventsEmitted.WithLabelValues(typ).Inc()
		return nil
	}

	abort := func(err error) error {
		metrics.TurnsAborted.Inc()
		logger.Warn("turn_aborted", "session", in.SessionID, "error", err)
		return err
	}

	if err := emit(stream.TypeSessionStart, map[string]any{}); err != nil {
		return abort(err)
	}

	var answer strings.Builder
	var toolsUsed, actionTypes []string

	pre, post := script(sc)
	if err := c.streamText(ctx, emit, pre, &answer); err != nil {
		return abort(err)
	}

	if binding, ok := c.registry.Lookup(sc); ok {
		call := binding.NewCall(in.Message)
		if err := emit(stream.TypeToolCallStart, call); err != nil {
			return abort(err)
		}
		started := time.Now()
		res, err := binding.Execute(ctx, call)
		if err != nil {
			return abort(err)
		}
		metrics.ToolCalls.WithLabelValues(call.Tool).Inc()
		complete := toolCompleteData{
			Tool:     call.Tool,
			CallID:   call.ID,
			Duration: time.Since(started).Milliseconds(),
			Result:   res,
		}
		if err := emit(stream.TypeToolCallComplete, complete); err != nil {
			return abort(err)
		}
		toolsUsed = append(toolsUsed, call.Tool)
		if res.Data.ClientAction != nil {
			actionTypes = append(actionTypes, res.Data.ClientAction.Type)
		}
		if err := c.streamText(ctx, emit, post, &answer); err != nil {
			return abort(err)
		}
	}

	if err := ctx.Err(); err != nil {
		return abort(err)
	}
	msg, err := store.CreateMessage(in.Owner, in.SessionID, in.Message, in.Context, answer.String(), toolsUsed, actionTypes)
	if err != nil {
		return abort(err)
	}
	// The row is committed; a failed session_end only loses the trailer.
	if err := emit(stream.TypeSessionEnd, sessionEndData{MessageID: msg.ID}); err != nil {
		logger.Warn("session_end_lost", "session", in.SessionID, "msg_id", msg.ID, "error", err)
	}
	metrics.TurnsCompleted.Inc()
	logger.Info("turn_completed", "session", in.SessionID, "msg_id", msg.ID, "tools", len(toolsUsed))
	return nil
}

// streamText emits a sentence as llm_token chunks with the configured
// per-token delay, accumulating the text into the answer.
func (c *Controller) streamText(ctx context.Context, emit func(string, any) error, text string, answer *strings.Builder) error {
	for _, chunk := range Tokenize(text) {
		if err := emit(stream.TypeLLMToken, tokenData{Content: chunk}); err != nil {
			return err
		}
		answer.WriteString(chunk)
		if c.tokenDelay > 0 {
			t := time.NewTimer(c.tokenDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil
}

// script returns the scene's introductory and concluding sentences. Scenes
// without a tool binding put the whole reply into the introduction.
func script(sc scene.Scene) (pre, post string) {
	switch sc {
	case scene.Swap:
		return "好的，正在为你准备一笔 swap 交易。", "交易窗口已打开，请确认参数后提交。"
	case scene.Deposit:
		return "好的，我来为你准备充值信息。", "充值地址已生成，请在钱包中完成转账。"
	default:
		return "这个问题我来帮你分析一下：近期市场波动较大，建议关注关键支撑位，控制好仓位。", ""
	}
}
