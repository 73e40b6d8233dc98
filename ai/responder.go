// Package ai provides the scripted text-response collaborator. The
// coordinator treats it as an opaque capability and never depends on
// its internals.
package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// FallbackReply is posted when the responder fails. The runtime never
// propagates responder errors as protocol errors.
const FallbackReply = "I did not quite catch that, but I am listening."

// ScriptedResponder answers chat prompts from a fixed rule table.
// It is pure: same input, same output, no side effects.
type ScriptedResponder struct {
	botName string
}

func NewScriptedResponder(botName string) *ScriptedResponder {
	return &ScriptedResponder{botName: botName}
}

var cannedReplies = []string{
	"Interesting point. Tell me more.",
	"That has come up before in this room.",
	"Noted. Anything else on your mind?",
	"I see it differently, but go on.",
	"Fair enough.",
}

// Respond produces a reply for the given text within a room context.
// The context argument stays unused by the script but is part of the
// capability contract so richer generators can slot in.
func (r *ScriptedResponder) Respond(ctx context.Context, text, roomContext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "":
		return "", fmt.Errorf("empty prompt")
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi "):
		return fmt.Sprintf("Hello! %s at your service.", r.botName), nil
	case strings.Contains(lower, "help"):
		return "Try /who for the member list, or just keep chatting.", nil
	case strings.HasSuffix(lower, "?"):
		return "Good question. I would say it depends on who you ask.", nil
	case strings.Contains(lower, "bye"):
		return "See you around.", nil
	}

	// Deterministic pick so retransmitted prompts get the same answer.
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return cannedReplies[int(h.Sum32())%len(cannedReplies)], nil
}
