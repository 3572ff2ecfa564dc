package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		value   []byte
		ttl     time.Duration
		wantHit bool
	}{
		{
			name:    "catalog item document",
			key:     "catalog:item:12",
			value:   []byte(`{"id":12,"code":"3017620422003","product_name":"Nutella"}`),
			ttl:     time.Minute,
			wantHit: true,
		},
		{
			name:    "stats document",
			key:     "catalog:stats",
			value:   []byte(`{"total_products":3}`),
			ttl:     time.Minute,
			wantHit: true,
		},
		{
			name:    "expired entry",
			key:     "catalog:item:13",
			value:   []byte(`{}`),
			ttl:     time.Millisecond,
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, tt.ttl); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !tt.wantHit {
				time.Sleep(10 * time.Millisecond)
			}

			got, err := cache.Get(ctx, tt.key)
			if !tt.wantHit {
				if err != domain.ErrCacheMiss {
					t.Errorf("Get() error = %v, want cache miss after expiry", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != string(tt.value) {
				t.Errorf("Get() = %s, want %s", got, tt.value)
			}
		})
	}
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	value := []byte("original")
	if err := cache.Set(ctx, "copy", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, err := cache.Get(ctx, "copy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got[1] = 'Y'

	again, _ := cache.Get(ctx, "copy")
	if string(again) != "original" {
		t.Errorf("stored value was mutated: %s", again)
	}
}

func TestMemoryCache_Lifecycle(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()
	key := "catalog:item:7"

	if _, err := cache.Get(ctx, key); err != domain.ErrCacheMiss {
		t.Errorf("Get() on empty cache error = %v, want %v", err, domain.ErrCacheMiss)
	}
	if ok, _ := cache.Exists(ctx, key); ok {
		t.Errorf("Exists() = true on empty cache")
	}

	if err := cache.Set(ctx, key, []byte("{}"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ok, _ := cache.Exists(ctx, key); !ok {
		t.Errorf("Exists() = false after Set")
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := cache.Get(ctx, key); err != domain.ErrCacheMiss {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
	if err := cache.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete() of a missing key error = %v", err)
	}
}

func TestMemoryCache_ExpiredEntriesAreSwept(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "stale", []byte("x"), time.Millisecond)
	_ = cache.Set(ctx, "fresh", []byte("y"), time.Hour)

	time.Sleep(5 * time.Millisecond)
	if ok, _ := cache.Exists(ctx, "stale"); ok {
		t.Errorf("Exists() = true for an expired entry")
	}
	if size := cache.Size(); size != 2 {
		t.Errorf("Size() = %d before sweep, want 2", size)
	}

	cache.removeExpired(time.Now().Add(time.Second))

	if size := cache.Size(); size != 1 {
		t.Errorf("Size() = %d after sweep, want 1", size)
	}
	if ok, _ := cache.Exists(ctx, "fresh"); !ok {
		t.Errorf("fresh entry was removed")
	}
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache()
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("catalog:item:%d", id%4)
			if err := cache.Set(ctx, key, []byte{byte(id)}, time.Minute); err != nil {
				t.Errorf("concurrent Set() error = %v", err)
			}
			if _, err := cache.Get(ctx, key); err != nil {
				t.Errorf("concurrent Get() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if size := cache.Size(); size != 4 {
		t.Errorf("Size() = %d, want 4", size)
	}
}
