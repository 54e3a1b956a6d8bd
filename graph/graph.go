package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind decides how a node is stepped.
type Kind string

const (
	KindStart     Kind = "start"
	KindEnd       Kind = "end"
	KindTask      Kind = "task"
	KindCondition Kind = "condition"
)

// NodeFunc transforms the state carried through the graph.
type NodeFunc[S any] func(context.Context, S) (S, error)

// ConditionFunc picks a branch label; the node's branches map it to the
// next node.
type ConditionFunc[S any] func(context.Context, S) (string, error)

// Hook wraps every node invocation. It returns the context the node runs
// with and a callback receiving the node's error.
type Hook func(ctx context.Context, node string) (context.Context, func(error))

type node[S any] struct {
	name     string
	kind     Kind
	run      NodeFunc[S]
	cond     ConditionFunc[S]
	next     string
	branches map[string]string
}

// Graph is a validated flow over a state of type S. One node runs at a
// time; loops are allowed and bounded by the per-node visit limit.
type Graph[S any] struct {
	nodes     map[string]*node[S]
	start     string
	maxVisits int
	hook      Hook
}

// Execute walks from the start node until the end node returns, handing
// each node's state to the next.
func (g *Graph[S]) Execute(ctx context.Context, state S) (S, error) {
	visits := make(map[string]int, len(g.nodes))
	for name := g.start; ; {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		n := g.nodes[name]
		if visits[name]++; visits[name] > g.maxVisits {
			return state, fmt.Errorf("node %s visited more than %d times", name, g.maxVisits)
		}
		next, out, err := g.step(ctx, n, state)
		if err != nil {
			return state, err
		}
		state = out
		if n.kind == KindEnd {
			return state, nil
		}
		name = next
	}
}

func (g *Graph[S]) step(ctx context.Context, n *node[S], state S) (next string, out S, err error) {
	if g.hook != nil {
		var done func(error)
		ctx, done = g.hook(ctx, n.name)
		defer func() { done(err) }()
	}

	if n.kind == KindCondition {
		label, cerr := n.cond(ctx, state)
		if cerr != nil {
			return "", state, fmt.Errorf("condition %s: %w", n.name, cerr)
		}
		to, ok := n.branches[label]
		if !ok {
			return "", state, fmt.Errorf("condition %s: no branch for %q", n.name, label)
		}
		return to, state, nil
	}
	if n.run == nil {
		return n.next, state, nil
	}
	out, err = n.run(ctx, state)
	if err != nil {
		return "", state, fmt.Errorf("node %s: %w", n.name, err)
	}
	return n.next, out, nil
}

// Builder assembles a graph. Mistakes are collected and reported by Build,
// so a chain of calls never panics.
type Builder[S any] struct {
	g    *Graph[S]
	errs []error
}

func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{g: &Graph[S]{nodes: map[string]*node[S]{}, maxVisits: 10}}
}

func (b *Builder[S]) errorf(format string, args ...any) *Builder[S] {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

func (b *Builder[S]) add(n *node[S]) *Builder[S] {
	switch {
	case n.name == "":
		return b.errorf("node without a name")
	case b.g.nodes[n.name] != nil:
		return b.errorf("node %s added twice", n.name)
	}
	b.g.nodes[n.name] = n
	if n.kind == KindStart && b.g.start == "" {
		b.g.start = n.name
	}
	return b
}

// AddNode adds a start, end or task node. Task nodes need run; start and
// end nodes may pass nil.
func (b *Builder[S]) AddNode(name string, kind Kind, run NodeFunc[S]) *Builder[S] {
	switch kind {
	case KindStart, KindEnd:
	case KindTask:
		if run == nil {
			return b.errorf("task node %s has no function", name)
		}
	default:
		return b.errorf("node %s: use AddConditionNode for kind %q", name, kind)
	}
	return b.add(&node[S]{name: name, kind: kind, run: run})
}

// AddConditionNode adds a branch point. branches maps labels returned by
// cond to node names.
func (b *Builder[S]) AddConditionNode(name string, cond ConditionFunc[S], branches map[string]string) *Builder[S] {
	if cond == nil || len(branches) == 0 {
		return b.errorf("condition node %s needs a function and branches", name)
	}
	return b.add(&node[S]{name: name, kind: KindCondition, cond: cond, branches: maps.Clone(branches)})
}

// AddEdge sets the single outgoing edge of from.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	n := b.g.nodes[from]
	switch {
	case n == nil:
		return b.errorf("edge from unknown node %s", from)
	case n.kind == KindCondition:
		return b.errorf("edge from condition node %s: use branches", from)
	}
	n.next = to
	return b
}

// SetStart names the entry node. The first start node added is the
// default.
func (b *Builder[S]) SetStart(name string) *Builder[S] {
	b.g.start = name
	return b
}

// SetMaxVisits bounds how often any single node may run in one Execute.
func (b *Builder[S]) SetMaxVisits(n int) *Builder[S] {
	if n > 0 {
		b.g.maxVisits = n
	}
	return b
}

func (b *Builder[S]) WithHook(h Hook) *Builder[S] {
	b.g.hook = h
	return b
}

// Build checks that the start node exists and every edge and branch leads
// to a known node, then returns the graph.
func (b *Builder[S]) Build() (*Graph[S], error) {
	errs := slices.Clone(b.errs)
	known := func(from, to string) {
		if b.g.nodes[to] == nil {
			errs = append(errs, fmt.Errorf("node %s leads to unknown node %q", from, to))
		}
	}
	if b.g.start == "" {
		errs = append(errs, errors.New("no start node"))
	} else {
		known("start", b.g.start)
	}
	for _, name := range slices.Sorted(maps.Keys(b.g.nodes)) {
		n := b.g.nodes[name]
		switch n.kind {
		case KindEnd:
		case KindCondition:
			for _, label := range slices.Sorted(maps.Keys(n.branches)) {
				known(name, n.branches[label])
			}
		default:
			known(name, n.next)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid graph: %w", errors.Join(errs...))
	}
	return b.g, nil
}
