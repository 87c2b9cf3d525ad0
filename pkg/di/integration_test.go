package di

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/cache"
	"github.com/goliatone/go-record-finder/finder"
	"github.com/goliatone/go-record-finder/record"
)

// newUserContainer opens an in-memory database with a seeded users table and
// a registered User class.
func newUserContainer(t testing.TB, rowCache bool, seed int) (*Container, *record.Class) {
	t.Helper()

	cfg := memoryConfig()
	if rowCache {
		cfg.RowCache = cache.Config{
			Enabled:            true,
			Capacity:           1000,
			NumShards:          16,
			TTL:                time.Minute,
			EvictionPercentage: 10,
		}
	}
	container, err := NewContainer(cfg, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { container.Close() })

	ctx := context.Background()
	db := container.Connection().Bun()
	if _, err := db.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL, name TEXT, active BOOLEAN)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i := 1; i <= seed; i++ {
		if _, err := db.ExecContext(ctx, `INSERT INTO users (id, email, name, active) VALUES (?, ?, ?, ?)`,
			i, fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("User %d", i), i%2 == 0); err != nil {
			t.Fatalf("insert user %d: %v", i, err)
		}
	}

	users, err := container.Registry().Register(record.Definition{
		Name:       "User",
		PrimaryKey: "id",
		Columns: []attribute.Column{
			{Name: "id", Type: attribute.Integer{}},
			{Name: "email", Type: attribute.String{}},
			{Name: "name", Type: attribute.String{}},
			{Name: "active", Type: attribute.Boolean{}},
		},
	})
	if err != nil {
		t.Fatalf("register User: %v", err)
	}
	return container, users
}

func TestEndToEndFinderFlow(t *testing.T) {
	container, users := newUserContainer(t, false, 10)
	f := container.Finder()
	ctx := context.Background()

	rec, err := f.FindByPrimaryKey(ctx, users, 4)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}
	if rec.Get("email") != "user4@example.com" {
		t.Errorf("Expected user4@example.com, got %v", rec.Get("email"))
	}
	if rec.Get("active") != true {
		t.Errorf("Expected active to cast to true, got %#v", rec.Get("active"))
	}
	if !rec.IsPersisted() {
		t.Error("Loaded record should be persisted")
	}

	rec, err = f.FindBy(ctx, users, finder.By(map[string]any{"email": "user9@example.com", "active": false}))
	if err != nil {
		t.Fatalf("FindBy() failed: %v", err)
	}
	if rec == nil || rec.Get("id") != int64(9) {
		t.Fatalf("Expected user 9, got %v", rec)
	}

	_, err = f.FindByOrRaise(ctx, users, finder.By(map[string]any{"email": "nobody@example.com"}))
	if !finder.IsRecordNotFound(err) {
		t.Errorf("Expected RecordNotFound, got %v", err)
	}

	recs, err := f.Find(ctx, users, []int{3, 1, 2})
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	for i, want := range []int64{3, 1, 2} {
		if recs[i].Get("id") != want {
			t.Errorf("Find() result %d: expected id %d, got %v", i, want, recs[i].Get("id"))
		}
	}
}

func TestRowCacheFlow(t *testing.T) {
	container, users := newUserContainer(t, true, 3)
	f := container.Finder()
	ctx := context.Background()

	first, err := f.FindByPrimaryKey(ctx, users, 1)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}

	if _, err := container.Connection().Bun().ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, "changed@example.com", 1); err != nil {
		t.Fatalf("update: %v", err)
	}

	cached, err := f.FindByPrimaryKey(ctx, users, 1)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}
	if cached.Get("email") != first.Get("email") {
		t.Errorf("Expected the cached row, got %v", cached.Get("email"))
	}
	if len(f.RowCacheKeys()) != 1 {
		t.Errorf("Expected one row cache key, got %v", f.RowCacheKeys())
	}

	if err := f.Invalidate(ctx, users); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}

	fresh, err := f.FindByPrimaryKey(ctx, users, 1)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}
	if fresh.Get("email") != "changed@example.com" {
		t.Errorf("Expected the updated row after Invalidate, got %v", fresh.Get("email"))
	}

	if _, err := container.Connection().Bun().ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, "again@example.com", 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.InvalidateID(ctx, users, int64(1)); err != nil {
		t.Fatalf("InvalidateID() failed: %v", err)
	}
	if len(f.RowCacheKeys()) != 0 {
		t.Errorf("Expected no row cache keys after InvalidateID, got %v", f.RowCacheKeys())
	}
	again, err := f.FindByPrimaryKey(ctx, users, 1)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}
	if again.Get("email") != "again@example.com" {
		t.Errorf("Expected the updated row after InvalidateID, got %v", again.Get("email"))
	}
}

func TestSingleTableInheritanceFlow(t *testing.T) {
	container, err := NewContainer(memoryConfig(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	db := container.Connection().Bun()
	if _, err := db.ExecContext(ctx, `CREATE TABLE vehicles (id INTEGER PRIMARY KEY, type TEXT, plate TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO vehicles (id, type, plate) VALUES (1, 'Car', 'CAR-1'), (2, 'Truck', 'TRK-2')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	reg := container.Registry()
	reg.MustRegister(record.Definition{
		Name:       "Vehicle",
		PrimaryKey: "id",
		Columns: []attribute.Column{
			{Name: "id", Type: attribute.Integer{}},
			{Name: "type", Type: attribute.String{}},
			{Name: "plate", Type: attribute.String{}},
		},
	})
	car := reg.MustRegister(record.Definition{Name: "Car", Parent: "Vehicle"})
	vehicle, _ := reg.Lookup("Vehicle")

	rec, err := container.Finder().FindByPrimaryKey(ctx, vehicle, 1)
	if err != nil {
		t.Fatalf("FindByPrimaryKey() failed: %v", err)
	}
	if rec.Class() != car {
		t.Errorf("Expected a Car, got %s", rec.Class().Name())
	}

	_, err = container.Finder().FindByPrimaryKey(ctx, car, 2)
	if !finder.IsRecordNotFound(err) {
		t.Errorf("Expected RecordNotFound for a Truck loaded as Car, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	container, users := newUserContainer(t, true, 20)
	f := container.Finder()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 20; i++ {
				id := (i+w)%20 + 1
				rec, err := f.FindByPrimaryKey(ctx, users, id)
				if err != nil {
					errs <- err
					return
				}
				if rec.Get("id") != int64(id) {
					errs <- fmt.Errorf("asked for %d, got %v", id, rec.Get("id"))
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := users.FinderCache().Len(true); got != 1 {
		t.Errorf("Expected one prepared template, got %d", got)
	}
	if got := container.Connection().PreparedCount(); got != 1 {
		t.Errorf("Expected one prepared statement, got %d", got)
	}
}

func BenchmarkFindByPrimaryKey(b *testing.B) {
	for _, rowCache := range []bool{false, true} {
		b.Run(fmt.Sprintf("row_cache=%t", rowCache), func(b *testing.B) {
			container, users := newUserContainer(b, rowCache, 100)
			f := container.Finder()
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := f.FindByPrimaryKey(ctx, users, i%100+1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFindSome(b *testing.B) {
	container, users := newUserContainer(b, false, 100)
	f := container.Finder()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Find(ctx, users, 1, 50, 100); err != nil {
			b.Fatal(err)
		}
	}
}
