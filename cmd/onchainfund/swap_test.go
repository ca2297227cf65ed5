package main

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
)

func TestResolveMinOutDefaultsToQuote(t *testing.T) {
	quoted := decimal.RequireFromString("0.00118")

	got, err := resolveMinOut(quoted, "")
	if err != nil {
		t.Fatalf("resolveMinOut: %v", err)
	}
	if !got.Equal(quoted) {
		t.Fatalf("got %s, want the quoted minimum %s", got, quoted)
	}
}

func TestResolveMinOutOverride(t *testing.T) {
	quoted := decimal.RequireFromString("0.00118")

	got, err := resolveMinOut(quoted, "0.002")
	if err != nil {
		t.Fatalf("resolveMinOut: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.002")) {
		t.Fatalf("got %s, want the user's 0.002", got)
	}
}

func TestResolveMinOutRejectsBadInput(t *testing.T) {
	quoted := decimal.RequireFromString("1")

	for _, raw := range []string{"abc", "0", "-1"} {
		_, err := resolveMinOut(quoted, raw)
		if err == nil {
			t.Fatalf("resolveMinOut(%q) accepted bad input", raw)
		}
		var verr *chainerr.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("resolveMinOut(%q) error %v is not a validation error", raw, err)
		}
	}
}
