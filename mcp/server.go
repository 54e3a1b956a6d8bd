package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/agentic"
)

// Tool names exposed by the server.
const (
	ToolAsk     = "ask"
	ToolHistory = "history"
)

// Asker answers one question and returns the committed turn.
type Asker interface {
	Run(ctx context.Context, question string) (*agentic.Turn, error)
}

// HistorySource lists previously committed turns, oldest first.
type HistorySource interface {
	History(ctx context.Context, query string) ([]*agentic.Turn, error)
}

// HistoryFunc adapts a plain function into a HistorySource.
type HistoryFunc func(ctx context.Context, query string) ([]*agentic.Turn, error)

// History calls f(ctx, query).
func (f HistoryFunc) History(ctx context.Context, query string) ([]*agentic.Turn, error) {
	return f(ctx, query)
}

// SessionHistory serves turns straight from a session memory.
func SessionHistory(mem *agentic.SessionMemory) HistorySource {
	return HistoryFunc(func(_ context.Context, query string) ([]*agentic.Turn, error) {
		q := strings.ToLower(strings.TrimSpace(query))
		var out []*agentic.Turn
		for _, t := range mem.History() {
			if q == "" || strings.Contains(strings.ToLower(t.Question), q) {
				out = append(out, &t)
			}
		}
		return out, nil
	})
}

// Info names the server in the MCP handshake.
type Info struct {
	Name    string
	Version string
}

type askArgs struct {
	Question string `json:"question" jsonschema:"Question about the indexed documents"`
}

type historyArgs struct {
	Query string `json:"query,omitempty" jsonschema:"Only list turns whose question contains this text"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of most recent turns to return"`
}

// NewServer exposes asker and history as MCP tools.
func NewServer(info Info, asker Asker, history HistorySource, logger *slog.Logger) (*sdkmcp.Server, error) {
	if asker == nil {
		return nil, fmt.Errorf("mcp: asker is nil")
	}
	if info.Name == "" {
		info.Name = "docqa"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if logger == nil {
		logger = logging.WithComponent("mcp")
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
		Title:   "Document question answering",
	}, nil)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolAsk,
		Description: "Answer a question from the indexed documents, with self-critique and revision",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, a askArgs) (*sdkmcp.CallToolResult, any, error) {
		question := strings.TrimSpace(a.Question)
		if question == "" {
			return errorResult("question is required"), nil, nil
		}
		logger.Info("ask", "question", question)

		turn, err := asker.Run(ctx, question)
		if err != nil {
			logger.Warn("ask failed", "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return turnResult(turn)
	})

	if history != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        ToolHistory,
			Description: "List previous questions with their outcome and final answer",
		}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, a historyArgs) (*sdkmcp.CallToolResult, any, error) {
			turns, err := history.History(ctx, a.Query)
			if err != nil {
				return errorResult(err.Error()), nil, nil
			}
			if a.Limit > 0 && len(turns) > a.Limit {
				turns = turns[len(turns)-a.Limit:]
			}
			if len(turns) == 0 {
				return textResult("no turns recorded"), nil, nil
			}
			lines := make([]string, 0, len(turns))
			for _, t := range turns {
				lines = append(lines, FormatTurn(t))
			}
			return textResult(strings.Join(lines, "\n\n")), nil, nil
		})
	}

	return server, nil
}

// FormatTurn renders a turn as a short human-readable block.
func FormatTurn(t *agentic.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d [%s", t.Seq, t.Outcome)
	if last, ok := t.LastRound(); ok {
		fmt.Fprintf(&b, " score=%d", last.Critique.Score)
	}
	fmt.Fprintf(&b, " rounds=%d]\nQ: %s\nA: ", len(t.History), t.Question)
	if t.FinalAnswer != nil {
		b.WriteString(t.FinalAnswer.Text)
	} else {
		b.WriteString("(no answer: " + t.FailureReason + ")")
	}
	return b.String()
}

func turnResult(turn *agentic.Turn) (*sdkmcp.CallToolResult, any, error) {
	if turn.FinalAnswer == nil {
		return errorResult("no answer produced: " + turn.FailureReason), nil, nil
	}
	summary, err := json.Marshal(map[string]any{
		"turn_id":     turn.ID,
		"outcome":     turn.Outcome,
		"complexity":  turn.Complexity.Label,
		"subtasks":    len(turn.Subtasks),
		"rounds":      len(turn.History),
		"score_after": turn.ScoreAfter,
		"improved":    turn.Improved,
	})
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: turn.FinalAnswer.Text},
			&sdkmcp.TextContent{Text: string(summary)},
		},
	}, nil, nil
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *sdkmcp.CallToolResult {
	res := textResult(msg)
	res.IsError = true
	return res
}
