package resilience

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_FirstLayerIsOutermost(t *testing.T) {
	var order []string
	mark := func(name string) Layer {
		return func(next Task) Task {
			return func(ctx context.Context) error {
				order = append(order, name+">")
				err := next(ctx)
				order = append(order, "<"+name)
				return err
			}
		}
	}

	task := Chain(mark("a"), mark("b"), mark("c"))(func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	assert.NoError(t, task(context.Background()))
	assert.Equal(t, []string{"a>", "b>", "c>", "task", "<c", "<b", "<a"}, order)
}

func TestChain_Empty(t *testing.T) {
	called := false
	task := Chain()(func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, task(context.Background()))
	assert.True(t, called)
}
