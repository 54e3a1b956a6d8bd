package timeout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweetpotato0/docqa/middleware"
)

func TestTimeoutCancelsSlowCalls(t *testing.T) {
	m := New(10 * time.Millisecond)
	err := m.Execute(middleware.NewContext(context.Background(), "draft", "p"), func(c *middleware.Context) error {
		select {
		case <-c.Context().Done():
			return c.Context().Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestTimeoutDisabled(t *testing.T) {
	m := New(0)
	err := m.Execute(middleware.NewContext(context.Background(), "draft", "p"), func(c *middleware.Context) error {
		if _, ok := c.Context().Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
