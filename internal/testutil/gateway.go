package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cotbench/internal/gateway"
	"cotbench/internal/prompt"
)

// Reply is a scripted gateway outcome for one call.
type Reply struct {
	Text    string
	Err     error
	Latency time.Duration
}

// ScriptedGateway answers from a table keyed by question id and strategy.
// Unscripted calls answer with Fallback, or an error when Fallback is nil.
type ScriptedGateway struct {
	mu       sync.Mutex
	replies  map[string][]Reply
	Fallback func(req gateway.Request) (gateway.Answer, error)
	calls    []gateway.Request
}

// NewScriptedGateway returns an empty ScriptedGateway.
func NewScriptedGateway() *ScriptedGateway {
	return &ScriptedGateway{replies: map[string][]Reply{}}
}

// On queues replies for (questionID, strategy); they are consumed in order
// and the last one repeats.
func (g *ScriptedGateway) On(questionID string, strategy prompt.Strategy, replies ...Reply) *ScriptedGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := scriptKey(questionID, strategy)
	g.replies[key] = append(g.replies[key], replies...)
	return g
}

// Answer implements gateway.Gateway.
func (g *ScriptedGateway) Answer(ctx context.Context, req gateway.Request) (gateway.Answer, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	key := scriptKey(req.QuestionID, req.Strategy)
	queue := g.replies[key]
	var reply *Reply
	if len(queue) > 0 {
		next := queue[0]
		reply = &next
		if len(queue) > 1 {
			g.replies[key] = queue[1:]
		}
	}
	fallback := g.Fallback
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return gateway.Answer{}, err
	}
	if reply == nil {
		if fallback != nil {
			return fallback(req)
		}
		return gateway.Answer{}, fmt.Errorf("no scripted reply for %s", key)
	}
	if reply.Err != nil {
		return gateway.Answer{}, reply.Err
	}
	return gateway.Answer{Text: reply.Text, Latency: reply.Latency, Timed: reply.Latency > 0}, nil
}

// Calls returns the requests seen so far.
func (g *ScriptedGateway) Calls() []gateway.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.Request, len(g.calls))
	copy(out, g.calls)
	return out
}

func scriptKey(questionID string, strategy prompt.Strategy) string {
	return questionID + "/" + string(strategy)
}
