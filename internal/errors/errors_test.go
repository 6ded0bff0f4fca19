package errors

import (
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(CodeConfig, "bad config")
	if plain.Error() != "bad config" {
		t.Fatalf("unexpected message %q", plain.Error())
	}
	wrapped := Wrap(CodeUnavailable, "connect rpc", fmt.Errorf("dial tcp: refused"))
	if wrapped.Error() != "connect rpc: dial tcp: refused" {
		t.Fatalf("unexpected wrapped message %q", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("wrapped cause lost")
	}
}

func TestAsAndIsThroughWrapping(t *testing.T) {
	inner := New(CodeInsufficient, "no funds")
	outer := fmt.Errorf("running task: %w", inner)

	typed, ok := As(outer)
	if !ok || typed.Code != CodeInsufficient {
		t.Fatalf("As failed through wrapping: %v, %v", typed, ok)
	}
	if !Is(outer, CodeInsufficient) {
		t.Fatal("Is failed through wrapping")
	}
	if Is(outer, CodeReverted) {
		t.Fatal("Is matched the wrong code")
	}
	if Is(fmt.Errorf("plain"), CodeInternal) {
		t.Fatal("untyped errors carry no code")
	}
}

func TestFatalCodes(t *testing.T) {
	fatal := []Code{CodeConfig, CodeUsage, CodeAborted, CodeInternal}
	for _, code := range fatal {
		if !Fatal(New(code, "x")) {
			t.Fatalf("code %d must be fatal", code)
		}
	}
	retryable := []Code{CodeAuth, CodeUnavailable, CodeEstimation, CodeSubmission, CodeReverted, CodeInsufficient}
	for _, code := range retryable {
		if Fatal(New(code, "x")) {
			t.Fatalf("code %d must be offered for retry", code)
		}
	}
	if Fatal(fmt.Errorf("untyped")) {
		t.Fatal("untyped errors are not fatal")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatal("nil error exits zero")
	}
	if ExitCode(New(CodeAborted, "declined")) != 4 {
		t.Fatal("abort exits 4")
	}
	if ExitCode(fmt.Errorf("untyped")) != int(CodeInternal) {
		t.Fatal("untyped errors exit as internal")
	}
}
