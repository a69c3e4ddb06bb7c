package internal

import (
	"context"
	"fmt"
)

// CompletionOptions are the knobs forwarded to the completion backend.
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider is the external text-generation collaborator. Implementations
// own their protocol, credentials and retry policy; the core only consumes
// the returned message or a ProviderError.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (Message, error)
}

// ScriptedProvider replays a fixed sequence of replies. It is the offline
// and test backend: deterministic, no network.
type ScriptedProvider struct {
	Replies []string
	next    int
}

// Complete returns the next scripted reply as an assistant message.
func (p *ScriptedProvider) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, &ProviderError{Transient: true, Err: err}
	}
	if p.next >= len(p.Replies) {
		return Message{}, &ProviderError{Transient: false, Err: fmt.Errorf("no scripted replies left (%d used)", p.next)}
	}
	reply := p.Replies[p.next]
	p.next++
	return NewMessage(RoleAssistant, reply), nil
}
