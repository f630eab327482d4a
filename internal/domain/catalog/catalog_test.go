package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestID_UnmarshalMixed(t *testing.T) {
	var got struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "p-7", "c": null}`), &got))

	assert.Equal(t, ID("42"), got.A)
	assert.Equal(t, ID("p-7"), got.B)
	assert.Equal(t, ID(""), got.C)
}

func TestProduct_DecodeDocument(t *testing.T) {
	raw := `{
		"id": 1,
		"name": "Tee",
		"price": 19.99,
		"category": "Shirts",
		"stock": 4,
		"variants": {"s": {"name": "S", "price": "21.50", "stock": 2}},
		"offer": {"enabled": true, "discountPercentage": 10, "endsAt": "2026-12-31T23:59:59Z"},
		"recommendations": {"relatedProductIds": [2, "3"]}
	}`
	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, ID("1"), p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, p.IsVisible())
	require.True(t, p.HasVariants())
	assert.True(t, p.Variants["s"].Price.Equal(decimal.RequireFromString("21.5")))
	require.NotNil(t, p.Offer.EndsAt)
	assert.Equal(t, []ID{"2", "3"}, p.Recommendations.RelatedProductIDs)
}

func TestProduct_IsVisible(t *testing.T) {
	hidden, shown := false, true
	assert.True(t, Product{}.IsVisible())
	assert.True(t, Product{Visible: &shown}.IsVisible())
	assert.False(t, Product{Visible: &hidden}.IsVisible())
}

func TestOffer_Remaining(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(90 * time.Minute)

	d, ok := (&Offer{EndsAt: &end}).Remaining(now)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Minute, d)

	d, ok = (&Offer{EndsAt: &end}).Remaining(end.Add(time.Hour))
	assert.True(t, ok)
	assert.Zero(t, d)

	_, ok = (&Offer{}).Remaining(now)
	assert.False(t, ok)

	var none *Offer
	_, ok = none.Remaining(now)
	assert.False(t, ok)
}

func TestSnapshot_NormalizesAndLooksUp(t *testing.T) {
	hidden := false
	snap := NewSnapshot([]Product{
		{ID: "a", Variants: map[ID]ProductVariant{"v1": {Name: "Small"}}, Tags: map[ID]Tag{"t": {Name: "new"}}},
		{ID: "b", Visible: &hidden},
	}, []Category{{ID: "c1", Name: "Shoes"}}, time.Now())

	a, err := snap.Product("a")
	require.NoError(t, err)
	assert.Equal(t, ID("v1"), a.Variants["v1"].ID)
	assert.Equal(t, ID("t"), a.Tags["t"].ID)

	_, err = snap.Product("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	visible := snap.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, ID("a"), visible[0].ID)

	assert.Equal(t, map[ID]string{"c1": "Shoes"}, snap.CategoryNames())
}

func TestSnapshot_DuplicateIDsKeepFirst(t *testing.T) {
	snap := NewSnapshot([]Product{
		{ID: "a", Name: "first"},
		{ID: "b", Name: "other"},
		{ID: "a", Name: "second"},
	}, nil, time.Now())

	require.Len(t, snap.Products, 2)
	assert.Equal(t, []ID{"a"}, snap.Duplicates)

	a, err := snap.Product("a")
	require.NoError(t, err)
	assert.Equal(t, "first", a.Name)

	b, err := snap.Product("b")
	require.NoError(t, err)
	assert.Equal(t, "other", b.Name)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"products":[{"id":"p1","name":"Mug","price":"8","category":"Kitchen","stock":3}],
	         "categories":[{"id":"k","name":"Kitchen"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store, err := LoadFile(path)
	require.NoError(t, err)

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

type failingStore struct{ err error }

func (f failingStore) ListProducts(context.Context) ([]Product, error)    { return nil, f.err }
func (f failingStore) ListCategories(context.Context) ([]Category, error) { return nil, f.err }

func TestFeed_Refresh(t *testing.T) {
	store := NewMemoryStore([]Product{{ID: "p1"}}, []Category{{ID: "c", Name: "Cat"}})
	feed := NewFeed(store, 0, zap.NewNop().Sugar())

	assert.Empty(t, feed.Snapshot().Products)

	require.NoError(t, feed.Refresh(context.Background()))
	assert.Len(t, feed.Snapshot().Products, 1)

	store.Replace([]Product{{ID: "p1"}, {ID: "p2"}}, nil)
	require.NoError(t, feed.Refresh(context.Background()))
	assert.Len(t, feed.Snapshot().Products, 2)
}

func TestFeed_RefreshErrorKeepsPrevious(t *testing.T) {
	store := NewMemoryStore([]Product{{ID: "p1"}}, nil)
	feed := NewFeed(store, 0, zap.NewNop().Sugar())
	require.NoError(t, feed.Refresh(context.Background()))
	before := feed.Snapshot()

	feed.store = failingStore{err: errors.New("upstream down")}
	err := feed.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, before, feed.Snapshot())
}

func TestFeed_RunStopsOnCancel(t *testing.T) {
	store := NewMemoryStore([]Product{{ID: "p1"}}, nil)
	feed := NewFeed(store, 10*time.Millisecond, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(feed.Snapshot().Products) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestProduct_CloneSharesNothing(t *testing.T) {
	old := decimal.NewFromInt(9)
	p := Product{
		ID:       "p",
		OldPrice: &old,
		Images:   []string{"a.jpg"},
		Variants: map[ID]ProductVariant{"v": {ID: "v", Stock: 1}},
		Offer:    &Offer{Enabled: true},
	}
	c := p.Clone()

	c.Images[0] = "b.jpg"
	c.Variants["v"] = ProductVariant{ID: "v", Stock: 99}
	c.Offer.Enabled = false
	*c.OldPrice = decimal.NewFromInt(1)

	assert.Equal(t, "a.jpg", p.Images[0])
	assert.Equal(t, 1, p.Variants["v"].Stock)
	assert.True(t, p.Offer.Enabled)
	assert.True(t, p.OldPrice.Equal(decimal.NewFromInt(9)))
}
