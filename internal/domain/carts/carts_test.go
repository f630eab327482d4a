package carts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain/catalog"
	"storefront/internal/slot"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newStore(t *testing.T) (*Store, *slot.Memory) {
	t.Helper()
	mem := slot.NewMemory()
	return Open(context.Background(), mem, "s1", zap.NewNop().Sugar()), mem
}

func shirt() catalog.Product {
	return catalog.Product{
		ID:       "shirt",
		Name:     "Shirt",
		Price:    dec("20"),
		Category: "Tops",
		Variants: map[catalog.ID]catalog.ProductVariant{
			"s": {ID: "s", Name: "S", Price: dec("18"), Stock: 4},
			"l": {ID: "l", Name: "L", Price: dec("22"), Stock: 2},
		},
	}
}

// brokenSlot reads fine but refuses every write.
type brokenSlot struct{ *slot.Memory }

func (b *brokenSlot) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestAddItem_MergesSameKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	p := catalog.Product{ID: "mug", Price: dec("8")}

	require.NoError(t, s.AddItem(ctx, p, 2, nil))
	require.NoError(t, s.AddItem(ctx, p, 3, nil))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, s.Count())
}

func TestAddItem_DistinctVariants(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	p := shirt()
	small, large := p.Variants["s"], p.Variants["l"]

	require.NoError(t, s.AddItem(ctx, p, 1, &small))
	require.NoError(t, s.AddItem(ctx, p, 1, &large))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "shirt:s", items[0].Key())
	assert.Equal(t, "shirt:l", items[1].Key())
	assertDec(t, "18", items[0].Price)
	assertDec(t, "40", s.Total())
}

func TestUpdateQuantity_NonPositiveRemoves(t *testing.T) {
	ctx := context.Background()
	for _, q := range []int{0, -5} {
		s, _ := newStore(t)
		require.NoError(t, s.AddItem(ctx, catalog.Product{ID: "a", Price: dec("1")}, 2, nil))
		require.NoError(t, s.AddItem(ctx, catalog.Product{ID: "b", Price: dec("1")}, 1, nil))

		require.NoError(t, s.UpdateQuantity(ctx, "a", q))

		_, ok := s.Item("a")
		assert.False(t, ok)
		assert.Equal(t, 1, s.Count())
	}
}

func TestUnknownKeysAreNoOps(t *testing.T) {
	ctx := context.Background()
	mem := &brokenSlot{Memory: slot.NewMemory()}
	s := Open(ctx, mem, "s1", zap.NewNop().Sugar())

	// no mutation, so no write is attempted and no error surfaces
	assert.NoError(t, s.RemoveItem(ctx, "ghost"))
	assert.NoError(t, s.UpdateQuantity(ctx, "ghost", 3))
	assert.NoError(t, s.UpdateQuantity(ctx, "ghost", 0))
	assert.Zero(t, s.Count())
}

func TestAddItem_NonPositiveQuantityIsIgnored(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	mug := catalog.Product{ID: "mug", Price: dec("8")}
	pan := catalog.Product{ID: "pan", Price: dec("30")}

	require.NoError(t, s.AddItem(ctx, mug, 2, nil))
	require.NoError(t, s.AddItem(ctx, pan, 0, nil))
	require.NoError(t, s.AddItem(ctx, mug, -5, nil))
	require.NoError(t, s.AddItem(ctx, catalog.Product{Price: dec("1")}, 1, nil))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	reopened := Open(ctx, mem, "s1", zap.NewNop().Sugar()).Items()
	require.Len(t, reopened, 1)
	assert.Equal(t, "mug", reopened[0].Key())
	assert.Equal(t, 2, reopened[0].Quantity)
}

func TestAddItem_IgnoredQuantityWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &brokenSlot{Memory: slot.NewMemory()}, "s1", zap.NewNop().Sugar())

	assert.NoError(t, s.AddItem(ctx, catalog.Product{ID: "mug", Price: dec("8")}, 0, nil))
	assert.Zero(t, s.Count())
}

func TestTotal_UsesCapturedPrices(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	p := shirt()
	small := p.Variants["s"]

	require.NoError(t, s.AddItem(ctx, p, 2, &small))
	require.NoError(t, s.AddItem(ctx, p, 1, nil))

	// catalog edits after the add do not reach the cart
	p.Price = dec("999")
	small.Price = dec("999")
	p.Variants["s"] = small

	assertDec(t, "56", s.Total())
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	p := shirt()
	large := p.Variants["l"]
	old := dec("30")
	mug := catalog.Product{ID: "7", Name: "Mug", Price: dec("8.25"), OldPrice: &old}

	require.NoError(t, s.AddItem(ctx, p, 2, &large))
	require.NoError(t, s.AddItem(ctx, mug, 3, nil))

	restored := Open(ctx, mem, "s1", zap.NewNop().Sugar())
	want, got := s.Items(), restored.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Key(), got[i].Key())
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assertDec(t, want[i].EffectivePrice().String(), got[i].EffectivePrice())
	}
	require.NotNil(t, got[1].OldPrice)
	assertDec(t, "30", *got[1].OldPrice)
	assertDec(t, s.Total().String(), restored.Total())

	// other sessions do not see it
	other := Open(ctx, mem, "s2", zap.NewNop().Sugar())
	assert.Zero(t, other.Count())
}

func TestOpen_CorruptSlotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	require.NoError(t, mem.Save(ctx, SlotKey("s1"), []byte(`{not json`)))

	s := Open(ctx, mem, "s1", zap.NewNop().Sugar())
	assert.Zero(t, s.Count())
	assert.NotNil(t, s.Items())
}

func TestOpen_DropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	raw := `[{"id":"a","price":"2","quantity":1},{"id":"a","price":"2","quantity":2},{"id":"b","price":"1","quantity":0}]`
	require.NoError(t, mem.Save(ctx, SlotKey("s1"), []byte(raw)))

	s := Open(ctx, mem, "s1", zap.NewNop().Sugar())
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestPersistFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &brokenSlot{Memory: slot.NewMemory()}, "s1", zap.NewNop().Sugar())

	err := s.AddItem(ctx, catalog.Product{ID: "a", Price: dec("5")}, 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersist))

	var pe *PersistError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "cart:s1", pe.Key)

	// memory already changed
	assert.Equal(t, 1, s.Count())
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	p1 := catalog.Product{ID: "p1", Price: dec("50"), Stock: 10}

	require.NoError(t, s.AddItem(ctx, p1, 3, nil))
	assert.Equal(t, 3, s.Count())
	assertDec(t, "150", s.Total())

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 1))
	assert.Equal(t, 1, s.Count())
	assertDec(t, "50", s.Total())

	require.NoError(t, s.RemoveItem(ctx, "p1"))
	assert.Equal(t, 0, s.Count())
	assertDec(t, "0", s.Total())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	require.NoError(t, s.AddItem(ctx, catalog.Product{ID: "a", Price: dec("1")}, 1, nil))
	require.NoError(t, s.Clear(ctx))

	raw, err := mem.Load(ctx, SlotKey("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSessions_GetAndSweep(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	sessions := NewSessions(mem, zap.NewNop().Sugar())

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	a := sessions.Get(ctx, "a")
	require.NoError(t, a.AddItem(ctx, catalog.Product{ID: "x", Price: dec("4")}, 2, nil))
	assert.Same(t, a, sessions.Get(ctx, "a"))

	now = now.Add(10 * time.Minute)
	sessions.Get(ctx, "b")

	assert.Equal(t, 1, sessions.Sweep(5*time.Minute))
	assert.Equal(t, 1, sessions.Len())

	// evicted cart comes back from its slot
	again := sessions.Get(ctx, "a")
	assert.NotSame(t, a, again)
	assert.Equal(t, 2, again.Count())
}

func TestSessions_SweepSkipsCartInUse(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(slot.NewMemory(), zap.NewNop().Sugar())

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	busy := sessions.Get(ctx, "busy")
	sessions.Get(ctx, "idle")
	now = now.Add(time.Hour)

	// a request is mid-operation on this cart
	busy.mu.Lock()
	assert.Equal(t, 1, sessions.Sweep(time.Minute))
	busy.mu.Unlock()

	assert.Same(t, busy, sessions.Get(ctx, "busy"))
	assert.Equal(t, 1, sessions.Len())
}
