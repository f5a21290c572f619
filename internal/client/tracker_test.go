package client

import (
	"context"
	"testing"
)

func TestTrackerSupersedes(t *testing.T) {
	tr := NewTracker()

	ctx1, tk1 := tr.Begin(context.Background(), "collections", RequestKey{"diff/collections", "today"})
	ctx2, tk2 := tr.Begin(context.Background(), "collections", RequestKey{"diff/collections", "7d"})

	if ctx1.Err() != context.Canceled {
		t.Errorf("expected first request to be cancelled, got %v", ctx1.Err())
	}
	if ctx2.Err() != nil {
		t.Errorf("expected second request to be live, got %v", ctx2.Err())
	}
	if key, ok := tr.Pending("collections"); !ok || key.Range != "7d" {
		t.Errorf("expected pending 7d, got %v %v", key, ok)
	}

	if tr.Accept(tk1) {
		t.Error("stale ticket must be rejected")
	}
	if !tr.Accept(tk2) {
		t.Error("current ticket must be accepted")
	}
	if tr.Accept(tk2) {
		t.Error("a ticket is accepted only once")
	}
	if _, ok := tr.Pending("collections"); ok {
		t.Error("expected nothing pending after accept")
	}
}

func TestTrackerSlotsAreIndependent(t *testing.T) {
	tr := NewTracker()

	ctxA, tkA := tr.Begin(context.Background(), "a", RequestKey{"history/skills", "7d"})
	_, tkB := tr.Begin(context.Background(), "b", RequestKey{"history/skills", "7d"})

	if ctxA.Err() != nil {
		t.Error("request in another slot must not be cancelled")
	}
	if !tr.Accept(tkA) || !tr.Accept(tkB) {
		t.Error("both slots should accept their tickets")
	}
}

func TestTrackerCancelAll(t *testing.T) {
	tr := NewTracker()
	ctx, tk := tr.Begin(context.Background(), "a", RequestKey{"latest", ""})
	tr.CancelAll()

	if ctx.Err() == nil {
		t.Error("expected context to be cancelled")
	}
	if tr.Accept(tk) {
		t.Error("cancelled ticket must be rejected")
	}
}
