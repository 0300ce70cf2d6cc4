// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup
	var count atomic.Int32

	for i := 0; i < 100; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			count.Add(1)
		})
	}

	cg.Close()
	if v := count.Load(); v != 100 {
		t.Fatalf("want 100 goroutines complete, got %d", v)
	}
}
