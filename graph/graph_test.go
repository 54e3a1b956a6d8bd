package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type counter struct {
	n     int
	trail []string
}

func step(name string) NodeFunc[*counter] {
	return func(_ context.Context, s *counter) (*counter, error) {
		s.n++
		s.trail = append(s.trail, name)
		return s, nil
	}
}

func mustBuild[S any](t *testing.T, b *Builder[S]) *Graph[S] {
	t.Helper()
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func TestBuildReportsMistakes(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder[int]
		want  string
	}{
		{"empty name", func() *Builder[int] {
			return NewBuilder[int]().AddNode("", KindTask, func(_ context.Context, s int) (int, error) { return s, nil })
		}, "node without a name"},
		{"duplicate", func() *Builder[int] {
			return NewBuilder[int]().AddNode("start", KindStart, nil).AddNode("start", KindStart, nil).SetStart("start")
		}, "node start added twice"},
		{"task without function", func() *Builder[int] {
			return NewBuilder[int]().AddNode("work", KindTask, nil)
		}, "task node work has no function"},
		{"no start", func() *Builder[int] {
			return NewBuilder[int]().AddNode("end", KindEnd, nil)
		}, "no start node"},
		{"dangling edge", func() *Builder[int] {
			return NewBuilder[int]().AddNode("start", KindStart, nil).AddEdge("start", "ghost").SetStart("start")
		}, `node start leads to unknown node "ghost"`},
		{"missing edge", func() *Builder[int] {
			return NewBuilder[int]().AddNode("start", KindStart, nil).SetStart("start")
		}, `node start leads to unknown node ""`},
		{"edge from condition", func() *Builder[int] {
			return NewBuilder[int]().
				AddConditionNode("check", func(context.Context, int) (string, error) { return "x", nil }, map[string]string{"x": "check"}).
				AddEdge("check", "check")
		}, "use branches"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build().Build()
			if g != nil || err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExecuteLinearGraph(t *testing.T) {
	g := mustBuild(t, NewBuilder[*counter]().
		AddNode("start", KindStart, nil).
		AddNode("a", KindTask, step("a")).
		AddNode("b", KindTask, step("b")).
		AddNode("end", KindEnd, nil).
		AddEdge("start", "a").
		AddEdge("a", "b").
		AddEdge("b", "end"))

	out, err := g.Execute(context.Background(), &counter{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := strings.Join(out.trail, ","); got != "a,b" {
		t.Fatalf("unexpected trail %q", got)
	}
}

func TestExecuteValueStateFlowsBetweenNodes(t *testing.T) {
	add := func(_ context.Context, s int) (int, error) { return s + 1, nil }
	g := mustBuild(t, NewBuilder[int]().
		AddNode("start", KindStart, nil).
		AddNode("inc1", KindTask, add).
		AddNode("inc2", KindTask, add).
		AddNode("end", KindEnd, nil).
		AddEdge("start", "inc1").
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "end"))

	out, err := g.Execute(context.Background(), 40)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != 42 {
		t.Fatalf("expected 42, got %d", out)
	}
}

func TestExecuteConditionLoop(t *testing.T) {
	g := mustBuild(t, NewBuilder[*counter]().
		AddNode("start", KindStart, nil).
		AddNode("work", KindTask, step("work")).
		AddConditionNode("check", func(_ context.Context, s *counter) (string, error) {
			if s.n < 3 {
				return "again", nil
			}
			return "done", nil
		}, map[string]string{"again": "work", "done": "end"}).
		AddNode("end", KindEnd, nil).
		AddEdge("start", "work").
		AddEdge("work", "check"))

	out, err := g.Execute(context.Background(), &counter{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.n != 3 {
		t.Fatalf("expected 3 iterations, got %d", out.n)
	}
}

func TestExecuteInfiniteLoop(t *testing.T) {
	g := mustBuild(t, NewBuilder[*counter]().
		AddNode("start", KindStart, nil).
		AddNode("work", KindTask, step("work")).
		AddConditionNode("check", func(context.Context, *counter) (string, error) {
			return "again", nil
		}, map[string]string{"again": "work"}).
		AddNode("end", KindEnd, nil).
		AddEdge("start", "work").
		AddEdge("work", "check").
		SetMaxVisits(5))

	_, err := g.Execute(context.Background(), &counter{})
	if err == nil || !strings.Contains(err.Error(), "node work visited more than 5 times") {
		t.Fatalf("expected visit limit error, got %v", err)
	}
}

func TestExecuteErrors(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		g := mustBuild(t, NewBuilder[int]().
			AddNode("start", KindStart, nil).
			AddNode("end", KindEnd, nil).
			AddEdge("start", "end"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := g.Execute(ctx, 0); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("unknown branch label", func(t *testing.T) {
		g := mustBuild(t, NewBuilder[int]().
			AddNode("start", KindStart, nil).
			AddConditionNode("check", func(context.Context, int) (string, error) { return "maybe", nil },
				map[string]string{"yes": "end"}).
			AddNode("end", KindEnd, nil).
			AddEdge("start", "check"))
		_, err := g.Execute(context.Background(), 0)
		if err == nil || !strings.Contains(err.Error(), `no branch for "maybe"`) {
			t.Fatalf("expected branch error, got %v", err)
		}
	})

	t.Run("node error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		g := mustBuild(t, NewBuilder[int]().
			AddNode("start", KindStart, nil).
			AddNode("fail", KindTask, func(context.Context, int) (int, error) { return 0, boom }).
			AddNode("end", KindEnd, nil).
			AddEdge("start", "fail").
			AddEdge("fail", "end"))
		_, err := g.Execute(context.Background(), 0)
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped boom, got %v", err)
		}
	})
}

func TestHookSeesEveryNode(t *testing.T) {
	var seen []string
	var failed []string
	hook := func(ctx context.Context, node string) (context.Context, func(error)) {
		seen = append(seen, node)
		return ctx, func(err error) {
			if err != nil {
				failed = append(failed, node)
			}
		}
	}
	g := mustBuild(t, NewBuilder[*counter]().
		AddNode("start", KindStart, nil).
		AddNode("a", KindTask, step("a")).
		AddNode("end", KindEnd, nil).
		AddEdge("start", "a").
		AddEdge("a", "end").
		WithHook(hook))

	if _, err := g.Execute(context.Background(), &counter{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := strings.Join(seen, ","); got != "start,a,end" {
		t.Fatalf("unexpected hook trail %q", got)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures %v", failed)
	}
}
