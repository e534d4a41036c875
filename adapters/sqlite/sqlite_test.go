package sqlite_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/artpar/occi/adapters/clock"
	"github.com/artpar/occi/adapters/sqlite"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "occi-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func testRecord(id string) ports.Record {
	return ports.Record{
		ID:     id,
		Kind:   "http://schemas.ogf.org/occi/infrastructure#network",
		Mixins: []string{"http://schemas.ogf.org/occi/infrastructure#ipnetwork"},
		Attributes: map[string]any{
			"occi.network.state":   "active",
			"occi.network.vlan":    42.0,
			"occi.network.address": "10.0.0.1",
		},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	created, err := store.Create(ctx, testRecord("net-1"))
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if created.State != "active" {
		t.Errorf("State = %q, want active", created.State)
	}

	got, err := store.Get(ctx, "net-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.Kind != created.Kind {
		t.Errorf("Kind = %q, want %q", got.Kind, created.Kind)
	}
	if len(got.Mixins) != 1 || got.Mixins[0] != "http://schemas.ogf.org/occi/infrastructure#ipnetwork" {
		t.Errorf("Mixins = %v", got.Mixins)
	}
	if got.Attributes["occi.network.vlan"] != 42.0 {
		t.Errorf("vlan = %v (%T), want 42", got.Attributes["occi.network.vlan"], got.Attributes["occi.network.vlan"])
	}
	if got.Attributes["occi.network.address"] != "10.0.0.1" {
		t.Errorf("address = %v", got.Attributes["occi.network.address"])
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	if _, err := store.Create(ctx, testRecord("net-1")); err != nil {
		t.Fatalf("create record: %v", err)
	}
	_, err := store.Create(ctx, testRecord("net-1"))
	if !errors.Is(err, sqlite.ErrDuplicate) {
		t.Errorf("duplicate create error = %v, want ErrDuplicate", err)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := sqlite.NewStore(db).WithClock(fake)
	ctx := context.Background()

	if _, err := store.Create(ctx, testRecord("net-1")); err != nil {
		t.Fatalf("create record: %v", err)
	}
	fake.Advance(time.Second)

	vm := ports.Record{
		ID:         "vm-1",
		Kind:       "http://schemas.ogf.org/occi/infrastructure#compute",
		Attributes: map[string]any{"occi.compute.state": "active"},
	}
	if _, err := store.Create(ctx, vm); err != nil {
		t.Fatalf("create record: %v", err)
	}

	all, err := store.List(ctx, ports.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d records, want 2", len(all))
	}
	if all[0].ID != "net-1" || all[1].ID != "vm-1" {
		t.Errorf("order = [%s %s], want [net-1 vm-1]", all[0].ID, all[1].ID)
	}

	byKind, err := store.List(ctx, ports.ListFilter{Kind: "http://schemas.ogf.org/occi/infrastructure#compute"})
	if err != nil {
		t.Fatalf("list by kind: %v", err)
	}
	if len(byKind) != 1 || byKind[0].ID != "vm-1" {
		t.Errorf("kind filter returned %v", byKind)
	}

	byMixin, err := store.List(ctx, ports.ListFilter{Mixin: "http://schemas.ogf.org/occi/infrastructure#ipnetwork"})
	if err != nil {
		t.Fatalf("list by mixin: %v", err)
	}
	if len(byMixin) != 1 || byMixin[0].ID != "net-1" {
		t.Errorf("mixin filter returned %v", byMixin)
	}
}

func TestStore_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	created, err := store.Create(ctx, testRecord("net-1"))
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	created.Attributes["occi.network.label"] = "backbone"
	created.Mixins = nil
	updated, err := store.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Attributes["occi.network.label"] != "backbone" {
		t.Errorf("label = %v", updated.Attributes["occi.network.label"])
	}
	if len(updated.Mixins) != 0 {
		t.Errorf("Mixins = %v, want empty", updated.Mixins)
	}

	if _, err := store.Update(ctx, testRecord("missing")); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	if _, err := store.Create(ctx, testRecord("net-1")); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if err := store.Delete(ctx, "net-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "net-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "net-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("delete twice = %v, want ErrNotFound", err)
	}
}

func TestStore_InvokeAction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	if _, err := store.Create(ctx, testRecord("net-1")); err != nil {
		t.Fatalf("create record: %v", err)
	}

	down := category.Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure/network/action#", Term: "down"}
	result, err := store.InvokeAction(ctx, "net-1", down, nil)
	if err != nil {
		t.Fatalf("invoke action: %v", err)
	}
	if result.State != "inactive" {
		t.Errorf("result.State = %q, want inactive", result.State)
	}

	rec, err := store.Get(ctx, "net-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != "inactive" {
		t.Errorf("stored state = %q, want inactive", rec.State)
	}
	if rec.Attributes["occi.network.state"] != "inactive" {
		t.Errorf("state attribute = %v, want inactive", rec.Attributes["occi.network.state"])
	}

	if _, err := store.InvokeAction(ctx, "missing", down, nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("invoke on missing = %v, want ErrNotFound", err)
	}
}

func TestStore_ExistsWithAttributeValue(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	ctx := context.Background()

	if _, err := store.Create(ctx, testRecord("net-1")); err != nil {
		t.Fatalf("create record: %v", err)
	}

	kind := category.Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure#", Term: "network"}

	tests := []struct {
		name      string
		kind      category.Identifier
		attribute string
		value     any
		want      bool
	}{
		{"string match", kind, "occi.network.address", "10.0.0.1", true},
		{"string miss", kind, "occi.network.address", "10.0.0.2", false},
		{"number match", kind, "occi.network.vlan", 42.0, true},
		{"number match from int", kind, "occi.network.vlan", 42, true},
		{"number miss", kind, "occi.network.vlan", 43.0, false},
		{"absent attribute", kind, "occi.network.hostname", "db1", false},
		{"other kind", category.Identifier{Scheme: kind.Scheme, Term: "compute"}, "occi.network.address", "10.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ExistsWithAttributeValue(ctx, tt.kind, tt.attribute, tt.value)
			if err != nil {
				t.Fatalf("ExistsWithAttributeValue failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsWithAttributeValue(%s, %v) = %v, want %v", tt.attribute, tt.value, got, tt.want)
			}
		})
	}
}

func TestStore_HealthCheck(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewStore(db)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
