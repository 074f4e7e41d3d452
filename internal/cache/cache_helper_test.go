package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheHelper(client, "task:"), mr
}

func TestCacheHelperSetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	if err := helper.Set(ctx, "id:7", payload{ID: 7, Name: "algebra"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:7", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != 7 || got.Name != "algebra" {
		t.Errorf("got %+v", got)
	}
}

func TestCacheHelperGetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]any
	err := helper.Get(context.Background(), "id:999", &dest)
	if err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "task:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}
	var dest string
	if err := helper.Get(ctx, "k", &dest); err != ErrCacheNotAvailable {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"list:page:1", "list:page:2", "id:3"} {
		if err := helper.Set(ctx, key, "x", time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	if mr.Exists("task:list:page:1") || mr.Exists("task:list:page:2") {
		t.Error("list keys should have been invalidated")
	}
	if !mr.Exists("task:id:3") {
		t.Error("id key should have survived the pattern invalidation")
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"count": 42}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "stats:u1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute (miss): %v", err)
	}
	if first["count"] != 42 || calls != 1 {
		t.Fatalf("first call: got %v, calls=%d", first, calls)
	}

	// The async cache fill races the second read; poll briefly.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		var dest map[string]int
		if err := helper.Get(ctx, "stats:u1", &dest); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "stats:u1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute (hit): %v", err)
	}
	if second["count"] != 42 {
		t.Errorf("second call: got %v", second)
	}
	if calls != 1 {
		t.Errorf("fetch should not run on a cache hit, ran %d times", calls)
	}
}
