package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestNew_RejectsNonPositiveCost(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero max cost")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "short", []byte("x"), 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "short"); !found {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(1500 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "short"); found {
		t.Fatal("expected miss after expiry")
	}
}
