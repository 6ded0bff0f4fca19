package task

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/prompt"
)

// Dispatch invokes one named action with its parameter map. The action blocks
// until it reaches a terminal outcome; a returned error is definitive failure
// after the action's own internal retries.
type Dispatch func(ctx context.Context, action string, params map[string]any) error

// Interpreter walks a task tree for one wallet run. Actions fully serialize;
// a leaf failure is offered to the confirmer, and a declined retry aborts the
// whole run rather than skipping the leaf, since later leaves may depend on
// state the failed one was supposed to establish.
type Interpreter struct {
	Dispatch Dispatch
	Confirm  prompt.Confirmer
	Rand     *rand.Rand
	Sleep    execution.Sleeper
	Logger   *slog.Logger

	// Pacing delay bounds applied after every completed leaf.
	DelayMin time.Duration
	DelayMax time.Duration
}

func (it *Interpreter) Run(ctx context.Context, root Node) error {
	return it.eval(ctx, root)
}

func (it *Interpreter) eval(ctx context.Context, node Node) error {
	if node.IsLeaf() {
		return it.leaf(ctx, node)
	}
	switch node.Kind {
	case Sequence:
		for _, child := range node.Children {
			if err := it.eval(ctx, child); err != nil {
				return err
			}
		}
		return nil
	case RandomChoice:
		if len(node.Children) == 0 {
			return clierr.New(clierr.CodeConfig, "random task group has no children")
		}
		return it.eval(ctx, node.Children[it.Rand.Intn(len(node.Children))])
	case Shuffle:
		order := make([]Node, len(node.Children))
		copy(order, node.Children)
		for i := len(order) - 1; i > 0; i-- {
			j := it.Rand.Intn(i + 1)
			order[i], order[j] = order[j], order[i]
		}
		for _, child := range order {
			if err := it.eval(ctx, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return clierr.New(clierr.CodeInternal, "unknown task group kind")
	}
}

func (it *Interpreter) leaf(ctx context.Context, node Node) error {
	for {
		err := it.Dispatch(ctx, node.Action, node.Params)
		if err == nil {
			return it.pace(ctx)
		}
		if clierr.Fatal(err) || ctx.Err() != nil {
			return err
		}
		it.Logger.Error("action failed", "action", node.Action, "reason", err)
		retry, confirmErr := it.Confirm.Confirm("Action " + node.Action + " failed. Retry?")
		if confirmErr != nil {
			return clierr.Wrap(clierr.CodeAborted, "confirmation prompt failed", confirmErr)
		}
		if !retry {
			return clierr.Wrap(clierr.CodeAborted, "operator declined retry of "+node.Action, err)
		}
	}
}

// pace sleeps a uniform random duration in [DelayMin, DelayMax] after a leaf
// completes, spacing out transaction issuance.
func (it *Interpreter) pace(ctx context.Context) error {
	if it.DelayMax <= 0 {
		return nil
	}
	delay := it.DelayMin
	if span := it.DelayMax - it.DelayMin; span > 0 {
		delay += time.Duration(it.Rand.Int63n(int64(span) + 1))
	}
	sleep := it.Sleep
	if sleep == nil {
		sleep = execution.SleepContext
	}
	it.Logger.Info("pacing before next task", "delay", delay.Round(time.Second))
	return sleep(ctx, delay)
}
