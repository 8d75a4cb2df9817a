package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/artfolio/internal/domain"
)

func yr(v int) *int         { return &v }
func pr(v float64) *float64 { return &v }

func ids(items []domain.CatalogItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFeaturedFlagWinsOverYear(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "a", Year: yr(2020)},
		{ID: "b", Year: yr(2023)},
		{ID: "c", Year: yr(2021), Featured: true},
	})

	it, ok := c.Featured()
	require.True(t, ok)
	assert.Equal(t, "c", it.ID)
}

func TestFeaturedFallsBackToNewestYear(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "a"},
		{ID: "b", Year: yr(2023)},
		{ID: "c", Year: yr(2023)},
	})
	it, ok := c.Featured()
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	_, ok = NewCatalog(nil).Featured()
	assert.False(t, ok)
}

func TestListSortsAbsentPriceAsZero(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "p500", Price: pr(500)},
		{ID: "none"},
		{ID: "p100", Price: pr(100)},
	})

	assert.Equal(t, []string{"none", "p100", "p500"}, ids(c.List(Query{Sort: SortPriceLow})))
	assert.Equal(t, []string{"p500", "p100", "none"}, ids(c.List(Query{Sort: SortPriceHigh})))
}

func TestListSortsByYear(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "x", Year: yr(2019)},
		{ID: "y"},
		{ID: "z", Year: yr(2022)},
		{ID: "w", Year: yr(2019)},
	})

	assert.Equal(t, []string{"z", "x", "w", "y"}, ids(c.List(Query{})))
	assert.Equal(t, []string{"y", "x", "w", "z"}, ids(c.List(Query{Sort: SortOld})))
	assert.Equal(t, []string{"x", "y", "z", "w"}, ids(c.List(Query{Sort: "random"})))
}

func TestListFiltersAndSearches(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "1", Title: "Red Field", Medium: "Oil on canvas", Year: yr(2023), Category: domain.CategoryPainting, Available: true},
		{ID: "2", Title: "Harbor", Medium: "Silver print", Year: yr(2018), Category: domain.CategoryPhotography},
		{ID: "3", Title: "Blue Hour", Medium: "oil", Category: domain.CategoryPainting},
	})

	assert.Equal(t, []string{"1", "3"}, ids(c.List(Query{Text: "OIL", Sort: "none"})))
	assert.Equal(t, []string{"2"}, ids(c.List(Query{Text: "2018"})))
	assert.Equal(t, []string{"1"}, ids(c.List(Query{Filter: "available"})))
	assert.Equal(t, []string{"2"}, ids(c.List(Query{Filter: "#photos"})))
	assert.Equal(t, []string{"1", "3"}, ids(c.List(Query{Filter: "paintings", Sort: "none"})))
	assert.Len(t, c.List(Query{Filter: "sculpture"}), 3)
	assert.Empty(t, c.List(Query{Text: "nothing matches"}))
}

func TestListIsRepeatableAndLeavesSnapshotAlone(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "a", Price: pr(3)}, {ID: "b", Price: pr(1)}, {ID: "c"}, {ID: "d", Price: pr(1)},
	})
	q := Query{Sort: SortPriceLow}

	first := c.List(q)
	second := c.List(q)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(first))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(c.Items()))
}

func TestNormalizeFilter(t *testing.T) {
	cases := map[string]string{
		"paintings":   "painting",
		"painting":    "painting",
		"#photos":     "photography",
		"photography": "photography",
		"available":   "available",
		"":            "all",
		"sculpture":   "all",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeFilter(in), in)
	}
}

func TestDetail(t *testing.T) {
	c := NewCatalog([]domain.CatalogItem{
		{ID: "a", Title: "A", Price: pr(1200), Available: true, Images: []string{"assets/artworks/a.png"}},
		{ID: "b", Title: "B", Available: true, Thumbnail: "assets/artworks/b.jpg"},
	})

	v, ok := c.Detail("a")
	require.True(t, ok)
	assert.Equal(t, "$1,200", v.PriceLabel)
	assert.True(t, v.Purchasable)
	assert.Equal(t, ImageChain{"assets/optimized/artworks/a.jpg", "assets/artworks/a.png"}, v.Image)

	v, ok = c.Detail("b")
	require.True(t, ok)
	assert.Equal(t, "—", v.PriceLabel)
	assert.False(t, v.Purchasable)

	_, ok = c.Detail("missing")
	assert.False(t, ok)
}

func TestGridImageChainFromRawThumbnailOnly(t *testing.T) {
	chain := GridImageChain(domain.CatalogItem{Thumbnail: "assets/artworks/x.jpg"})

	assert.Equal(t, ImageChain{
		"assets/optimized/artworks/thumbs/x.jpg",
		"assets/artworks/thumbs/x.jpg",
		"assets/artworks/x.jpg",
	}, chain)
}

func TestGridImageChainPrefersExplicitPath(t *testing.T) {
	chain := GridImageChain(domain.CatalogItem{
		Images:             []string{"/assets/photography/p.jpg"},
		OptimizedThumbnail: "https://cdn.example.com/p-small.jpg",
	})

	assert.Equal(t, ImageChain{
		"https://cdn.example.com/p-small.jpg",
		"/assets/photography/thumbs/p.jpg",
		"/assets/photography/p.jpg",
	}, chain)
}

func TestGridImageChainForForeignPath(t *testing.T) {
	chain := GridImageChain(domain.CatalogItem{Thumbnail: "https://example.com/pic.jpg"})
	assert.Equal(t, ImageChain{"https://example.com/pic.jpg"}, chain)
	assert.Nil(t, chain.Fallbacks())
}

type setProber map[string]bool

func (p setProber) Exists(_ context.Context, key string) (bool, error) { return p[key], nil }

func TestResolveImageStopsAtFirstHit(t *testing.T) {
	chain := GridImageChain(domain.CatalogItem{Thumbnail: "assets/artworks/x.jpg"})
	ctx := context.Background()

	assert.Equal(t, "assets/optimized/artworks/thumbs/x.jpg", ResolveImage(ctx, chain, setProber{"assets/optimized/artworks/thumbs/x.jpg": true}))
	assert.Equal(t, "assets/artworks/thumbs/x.jpg", ResolveImage(ctx, chain, setProber{"assets/artworks/thumbs/x.jpg": true}))
	assert.Equal(t, "assets/artworks/x.jpg", ResolveImage(ctx, chain, setProber{}))

	rest := Resolve(ctx, chain, setProber{"assets/artworks/thumbs/x.jpg": true})
	assert.Equal(t, []string{"assets/artworks/x.jpg"}, rest.Fallbacks())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "—", FormatPrice(nil))
	assert.Equal(t, "$1,200", FormatPrice(pr(1200)))
	assert.Equal(t, "$950", FormatPrice(pr(950)))
	assert.Equal(t, "$12,500.5", FormatPrice(pr(12500.5)))
}

func TestSnapshotDegradesToLastGoodCatalog(t *testing.T) {
	store := &memStore{loadErr: domain.ErrStoreUnavailable}
	uc := &CatalogUC{Store: store}
	ctx := context.Background()

	assert.Zero(t, uc.Snapshot(ctx).Len())

	store.loadErr = nil
	store.items = []domain.CatalogItem{{ID: "a"}}
	assert.Equal(t, 1, uc.Snapshot(ctx).Len())

	store.loadErr = domain.ErrStoreUnavailable
	assert.Equal(t, []string{"a"}, ids(uc.Snapshot(ctx).Items()))
}

func TestSnapshotReusesLoadWithinTTL(t *testing.T) {
	ctx := context.Background()
	store := &memStore{items: []domain.CatalogItem{{ID: "a"}}}
	now := time.UnixMilli(0)
	uc := &CatalogUC{Store: store, TTL: 30 * time.Second, Now: func() time.Time { return now }}

	uc.Snapshot(ctx)
	store.items = append(store.items, domain.CatalogItem{ID: "b"})
	now = now.Add(10 * time.Second)
	assert.Equal(t, 1, uc.Snapshot(ctx).Len())
	assert.Equal(t, 1, store.loads)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 2, uc.Snapshot(ctx).Len())
	assert.Equal(t, 2, store.loads)

	store.items = append(store.items, domain.CatalogItem{ID: "c"})
	uc.Invalidate()
	assert.Equal(t, 3, uc.Snapshot(ctx).Len())
	assert.Equal(t, 3, store.loads)
}

func TestSnapshotWithoutTTLAlwaysLoads(t *testing.T) {
	store := &memStore{}
	uc := &CatalogUC{Store: store}

	uc.Snapshot(context.Background())
	uc.Snapshot(context.Background())

	assert.Equal(t, 2, store.loads)
}
