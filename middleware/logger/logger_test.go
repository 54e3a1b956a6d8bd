package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sweetpotato0/docqa/middleware"
)

func TestCallLogger(t *testing.T) {
	t.Run("logs successful call at debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewCallLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		ctx := middleware.NewContext(context.Background(), "draft", "prompt")
		ctx.Metadata["provider"] = "stub"
		err := l.Execute(ctx, func(c *middleware.Context) error {
			c.Output = "answer"
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"generation call completed", "stage=draft", "output_chars=6", "provider=stub"} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in log output: %s", want, out)
			}
		}
	})

	t.Run("logs failures at warn and returns error", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewCallLogger(slog.New(slog.NewTextHandler(&buf, nil)))
		boom := errors.New("boom")

		err := l.Execute(middleware.NewContext(context.Background(), "critique", "p"), func(*middleware.Context) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if !strings.Contains(buf.String(), "level=WARN") {
			t.Fatalf("expected warn log, got %s", buf.String())
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		if NewCallLogger(nil).logger == nil {
			t.Fatal("expected default logger")
		}
	})
}
