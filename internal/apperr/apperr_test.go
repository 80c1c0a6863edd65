package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := New(NotFound, "thing %s not found", "x")
	if !Is(err, NotFound) {
		t.Error("expected NotFound to match")
	}
	if Is(err, Conflict) {
		t.Error("Conflict must not match a NotFound error")
	}
	if KindOf(err) != NotFound {
		t.Errorf("KindOf = %v, want NotFound", KindOf(err))
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	inner := New(Conflict, "already booked")
	outer := fmt.Errorf("booking failed: %w", inner)

	if !Is(outer, Conflict) {
		t.Error("expected kind to survive wrapping")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Internal, cause, "could not persist reservation")

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be unwrappable")
	}
	if !Is(err, Internal) {
		t.Error("expected Internal kind")
	}
}

func TestPlainErrorsHaveNoKind(t *testing.T) {
	err := errors.New("plain")
	if Is(err, Internal) {
		t.Error("a plain error must not match any kind")
	}
	if Is(nil, Internal) {
		t.Error("nil must not match any kind")
	}
}
