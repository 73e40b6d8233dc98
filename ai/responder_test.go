package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScriptedResponder_Rules(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	responder := NewScriptedResponder("Sage")

	reply, err := responder.Respond(ctx, "hello there", "lobby")
	req.NoError(err)
	req.Contains(reply, "Sage")

	reply, err = responder.Respond(ctx, "I need help", "lobby")
	req.NoError(err)
	req.Contains(reply, "/who")

	reply, err = responder.Respond(ctx, "is this a question?", "lobby")
	req.NoError(err)
	req.NotEmpty(reply)
}

func TestScriptedResponder_Deterministic(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	responder := NewScriptedResponder("Sage")

	// Same prompt, same answer, every time
	first, err := responder.Respond(ctx, "tell me about turnips", "lobby")
	req.NoError(err)
	second, err := responder.Respond(ctx, "tell me about turnips", "lobby")
	req.NoError(err)
	req.Equal(first, second)
}

func TestScriptedResponder_EmptyPrompt(t *testing.T) {
	req := require.New(t)
	responder := NewScriptedResponder("Sage")

	_, err := responder.Respond(context.Background(), "   ", "lobby")
	req.Error(err)
}

func TestScriptedResponder_CanceledContext(t *testing.T) {
	req := require.New(t)
	responder := NewScriptedResponder("Sage")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := responder.Respond(ctx, "hello", "lobby")
	req.Error(err)
}
