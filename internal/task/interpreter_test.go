package task

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/prompt"
)

type countingConfirmer struct {
	answer bool
	calls  int
}

func (c *countingConfirmer) Confirm(string) (bool, error) {
	c.calls++
	return c.answer, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestInterpreter(dispatch Dispatch) *Interpreter {
	return &Interpreter{
		Dispatch: dispatch,
		Confirm:  prompt.Auto{Answer: false},
		Rand:     rand.New(rand.NewSource(1)),
		Sleep:    func(context.Context, time.Duration) error { return nil },
		Logger:   discardLogger(),
	}
}

func leafNode(action string) Node {
	return Node{Action: action, Params: map[string]any{}}
}

func TestSequenceRunsChildrenInOrder(t *testing.T) {
	var seen []string
	it := newTestInterpreter(func(_ context.Context, action string, _ map[string]any) error {
		seen = append(seen, action)
		return nil
	})
	root := Node{Kind: Sequence, Children: []Node{leafNode("a"), leafNode("b"), leafNode("c")}}

	if err := it.Run(context.Background(), root); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Fatalf("expected ordered a b c, got %v", seen)
	}
}

func TestRandomChoiceRunsExactlyOne(t *testing.T) {
	var seen []string
	it := newTestInterpreter(func(_ context.Context, action string, _ map[string]any) error {
		seen = append(seen, action)
		return nil
	})
	root := Node{Kind: RandomChoice, Children: []Node{leafNode("a"), leafNode("b"), leafNode("c")}}

	if err := it.Run(context.Background(), root); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("random choice must run exactly one child, got %v", seen)
	}
}

func TestRandomChoiceCoversAllChildren(t *testing.T) {
	counts := map[string]int{}
	it := newTestInterpreter(func(_ context.Context, action string, _ map[string]any) error {
		counts[action]++
		return nil
	})
	root := Node{Kind: RandomChoice, Children: []Node{leafNode("a"), leafNode("b"), leafNode("c")}}

	for i := 0; i < 300; i++ {
		if err := it.Run(context.Background(), root); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}
	for _, action := range []string{"a", "b", "c"} {
		if counts[action] == 0 {
			t.Fatalf("child %s never chosen in 300 runs: %v", action, counts)
		}
	}
}

func TestShuffleRunsEachChildOnce(t *testing.T) {
	counts := map[string]int{}
	it := newTestInterpreter(func(_ context.Context, action string, _ map[string]any) error {
		counts[action]++
		return nil
	})
	root := Node{Kind: Shuffle, Children: []Node{leafNode("a"), leafNode("b"), leafNode("c"), leafNode("d")}}

	if err := it.Run(context.Background(), root); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, action := range []string{"a", "b", "c", "d"} {
		if counts[action] != 1 {
			t.Fatalf("shuffle must run each child exactly once, got %v", counts)
		}
	}
}

func TestShuffleDoesNotMutateTree(t *testing.T) {
	it := newTestInterpreter(func(context.Context, string, map[string]any) error { return nil })
	children := []Node{leafNode("a"), leafNode("b"), leafNode("c"), leafNode("d"), leafNode("e")}
	root := Node{Kind: Shuffle, Children: children}

	for i := 0; i < 20; i++ {
		if err := it.Run(context.Background(), root); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if root.Children[i].Action != want {
			t.Fatalf("shuffle reordered the tree itself: %+v", root.Children)
		}
	}
}

func TestLeafRetriesOnConfirmedFailure(t *testing.T) {
	calls := 0
	it := newTestInterpreter(func(context.Context, string, map[string]any) error {
		calls++
		if calls == 1 {
			return clierr.New(clierr.CodeReverted, "swap reverted")
		}
		return nil
	})
	confirm := &countingConfirmer{answer: true}
	it.Confirm = confirm

	if err := it.Run(context.Background(), leafNode("swap")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a single retry, got %d dispatches", calls)
	}
	if confirm.calls != 1 {
		t.Fatalf("expected one prompt, got %d", confirm.calls)
	}
}

func TestDeclinedRetryAbortsLaterSiblings(t *testing.T) {
	var seen []string
	it := newTestInterpreter(func(_ context.Context, action string, _ map[string]any) error {
		seen = append(seen, action)
		if action == "b" {
			return clierr.New(clierr.CodeInsufficient, "no funds")
		}
		return nil
	})
	root := Node{Kind: Sequence, Children: []Node{leafNode("a"), leafNode("b"), leafNode("c")}}

	err := it.Run(context.Background(), root)
	if !clierr.Is(err, clierr.CodeAborted) {
		t.Fatalf("expected abort, got %v", err)
	}
	if len(seen) != 2 || seen[1] != "b" {
		t.Fatalf("later siblings must not run after an abort, got %v", seen)
	}
}

func TestFatalErrorSkipsPrompt(t *testing.T) {
	it := newTestInterpreter(func(context.Context, string, map[string]any) error {
		return clierr.New(clierr.CodeConfig, "unknown network")
	})
	confirm := &countingConfirmer{answer: true}
	it.Confirm = confirm

	err := it.Run(context.Background(), leafNode("bad"))
	if !clierr.Is(err, clierr.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if confirm.calls != 0 {
		t.Fatal("fatal errors must abort without prompting")
	}
}

func TestPacingStaysInBounds(t *testing.T) {
	var waits []time.Duration
	it := newTestInterpreter(func(context.Context, string, map[string]any) error { return nil })
	it.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	it.DelayMin = 10 * time.Second
	it.DelayMax = 20 * time.Second
	root := Node{Kind: Sequence, Children: []Node{leafNode("a"), leafNode("b")}}

	if err := it.Run(context.Background(), root); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(waits) != 2 {
		t.Fatalf("expected one pacing delay per leaf, got %v", waits)
	}
	for _, d := range waits {
		if d < it.DelayMin || d > it.DelayMax {
			t.Fatalf("pacing delay %v outside [%v, %v]", d, it.DelayMin, it.DelayMax)
		}
	}
}
