package core

import (
	"errors"
	"math"
	"testing"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, 5); err != nil || v != 15 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID(" Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestValidateSlug(t *testing.T) {
	if err := ValidateSlug("first_comment"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateSlug("bad slug"); err == nil {
		t.Fatalf("expected invalid slug err")
	}
}

func TestXPForAction(t *testing.T) {
	if d, err := XPForAction(ActionComment); err != nil || d != 10 {
		t.Fatalf("comment delta: got %v %v", d, err)
	}
	if d, err := XPForAction(ActionReport); err != nil || d != 25 {
		t.Fatalf("report delta: got %v %v", d, err)
	}
	if _, err := XPForAction("upvote"); !errors.Is(err, ErrInvalidActionKind) {
		t.Fatalf("expected ErrInvalidActionKind, got %v", err)
	}
}

func TestTriggerForAction(t *testing.T) {
	tr, err := TriggerForAction(ActionComment)
	if err != nil || tr != TriggerComment {
		t.Fatalf("got %v %v", tr, err)
	}
	if _, err := TriggerForAction("nope"); !errors.Is(err, ErrInvalidActionKind) {
		t.Fatalf("expected ErrInvalidActionKind, got %v", err)
	}
}

func TestTriggerContextGet(t *testing.T) {
	var nilCtx TriggerContext
	if nilCtx.Get(StatTotalComments) != 0 {
		t.Fatal("nil context should read as zero")
	}
	c := TriggerContext{StatTotalComments: 7}
	if c.Get(StatTotalComments) != 7 || c.Get(StatTotalReports) != 0 {
		t.Fatal("missing stats must default to zero")
	}
	if !c.Has(StatTotalComments) || c.Has(StatTotalReports) {
		t.Fatal("Has misreports presence")
	}
}
