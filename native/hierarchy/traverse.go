package hierarchy

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Action is applied to every visited node.
type Action[T any] func(ctx context.Context, node *Node[T]) error

type traverseConfig struct {
	concurrency int
}

// Option tunes a traversal.
type Option func(*traverseConfig)

// WithConcurrency bounds how many nodes of one level run at once. Values
// below one are treated as one.
func WithConcurrency(n int) Option {
	return func(cfg *traverseConfig) {
		if n < 1 {
			n = 1
		}
		cfg.concurrency = n
	}
}

func newTraverseConfig(opts []Option) traverseConfig {
	cfg := traverseConfig{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// TraverseTopDown applies action level by level from the root down.
func TraverseTopDown[T any](ctx context.Context, root *Node[T], action Action[T], opts ...Option) error {
	return Forest[T]{root}.TraverseTopDown(ctx, action, opts...)
}

// TraverseBottomUp applies action level by level from the deepest level up,
// so every node's descendants finish before the node itself.
func TraverseBottomUp[T any](ctx context.Context, root *Node[T], action Action[T], opts ...Option) error {
	return Forest[T]{root}.TraverseBottomUp(ctx, action, opts...)
}

// TraverseTopDown applies action to every node of the forest, shallowest
// level first.
func (f Forest[T]) TraverseTopDown(ctx context.Context, action Action[T], opts ...Option) error {
	levels := f.Levels()
	cfg := newTraverseConfig(opts)
	for _, level := range levels {
		if err := runLevel(ctx, level, action, cfg); err != nil {
			return err
		}
	}
	return nil
}

// TraverseBottomUp applies action to every node of the forest, deepest level
// first.
func (f Forest[T]) TraverseBottomUp(ctx context.Context, action Action[T], opts ...Option) error {
	levels := f.Levels()
	cfg := newTraverseConfig(opts)
	for i := len(levels) - 1; i >= 0; i-- {
		if err := runLevel(ctx, levels[i], action, cfg); err != nil {
			return err
		}
	}
	return nil
}

// runLevel visits one level. A node is only started while the context is
// live; once any action fails the group context is cancelled and the
// remaining nodes are skipped.
func runLevel[T any](ctx context.Context, level []*Node[T], action Action[T], cfg traverseConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for _, node := range level {
		if gctx.Err() != nil {
			break
		}
		node := node
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return action(gctx, node)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
