package usecase

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/phenrril/artfolio/internal/domain"
)

const (
	FilterAll       = "all"
	FilterAvailable = "available"

	SortNew        = "new"
	SortOld        = "old"
	SortPriceHigh  = "priceH"
	SortPriceLow   = "priceL"
	noPriceDisplay = "—"
)

// CatalogUC hands out per-request snapshots of the store.
type CatalogUC struct {
	Store domain.CatalogStore
	// TTL reuses a loaded snapshot for that long; zero loads on every call.
	TTL time.Duration
	Now func() time.Time

	mu       sync.Mutex
	last     *Catalog
	loadedAt time.Time
}

// Snapshot loads the store, or reuses the previous load while it is younger
// than TTL. When the store cannot be read the last good snapshot is returned,
// or an empty catalog if there never was one.
func (uc *CatalogUC) Snapshot(ctx context.Context) *Catalog {
	if c := uc.fresh(); c != nil {
		return c
	}
	items, err := uc.Store.Load(ctx)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Bool("cached", uc.last != nil).Msg("catalog load failed")
		if uc.last != nil {
			return uc.last
		}
		return NewCatalog(nil)
	}
	uc.last = NewCatalog(items)
	uc.loadedAt = uc.now()
	return uc.last
}

// Invalidate makes the next Snapshot read the store.
func (uc *CatalogUC) Invalidate() {
	uc.mu.Lock()
	uc.loadedAt = time.Time{}
	uc.mu.Unlock()
}

func (uc *CatalogUC) fresh() *Catalog {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.TTL <= 0 || uc.last == nil || uc.loadedAt.IsZero() {
		return nil
	}
	if uc.now().Sub(uc.loadedAt) >= uc.TTL {
		return nil
	}
	return uc.last
}

func (uc *CatalogUC) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}

// Catalog is an immutable, ordered view of the store contents.
type Catalog struct {
	items []domain.CatalogItem
}

func NewCatalog(items []domain.CatalogItem) *Catalog {
	return &Catalog{items: slices.Clone(items)}
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) Items() []domain.CatalogItem { return slices.Clone(c.items) }

// Featured picks the first item flagged featured, otherwise the one with the
// highest year. Earlier items win ties.
func (c *Catalog) Featured() (domain.CatalogItem, bool) {
	if len(c.items) == 0 {
		return domain.CatalogItem{}, false
	}
	for _, it := range c.items {
		if it.Featured {
			return it, true
		}
	}
	best := c.items[0]
	for _, it := range c.items[1:] {
		if it.YearOrZero() > best.YearOrZero() {
			best = it
		}
	}
	return best, true
}

type Query struct {
	Text   string
	Filter string
	Sort   string
}

// List filters and sorts a copy of the catalog. Unknown sort keys keep store
// order.
func (c *Catalog) List(q Query) []domain.CatalogItem {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	filter := NormalizeFilter(q.Filter)

	out := make([]domain.CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		if text != "" && !strings.Contains(searchText(it), text) {
			continue
		}
		if !matchesFilter(it, filter) {
			continue
		}
		out = append(out, it)
	}

	sortKey := q.Sort
	if sortKey == "" {
		sortKey = SortNew
	}
	switch sortKey {
	case SortNew:
		slices.SortStableFunc(out, func(a, b domain.CatalogItem) int { return cmp.Compare(b.YearOrZero(), a.YearOrZero()) })
	case SortOld:
		slices.SortStableFunc(out, func(a, b domain.CatalogItem) int { return cmp.Compare(a.YearOrZero(), b.YearOrZero()) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b domain.CatalogItem) int { return cmp.Compare(b.PriceOrZero(), a.PriceOrZero()) })
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b domain.CatalogItem) int { return cmp.Compare(a.PriceOrZero(), b.PriceOrZero()) })
	}
	return out
}

func searchText(it domain.CatalogItem) string {
	year := ""
	if it.Year != nil {
		year = strconv.Itoa(*it.Year)
	}
	return strings.ToLower(it.Title + " " + it.Medium + " " + year)
}

func matchesFilter(it domain.CatalogItem, filter string) bool {
	switch filter {
	case FilterAll:
		return true
	case FilterAvailable:
		return it.Available
	default:
		return string(it.Category) == filter
	}
}

// NormalizeFilter maps gallery links such as #paintings or #photos onto a
// filter value.
func NormalizeFilter(alias string) string {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(alias), "#")) {
	case "paintings", "painting":
		return string(domain.CategoryPainting)
	case "photos", "photography":
		return string(domain.CategoryPhotography)
	case "available":
		return FilterAvailable
	default:
		return FilterAll
	}
}

type DetailView struct {
	Item       domain.CatalogItem
	Image      ImageChain
	PriceLabel string
	// Purchasable is true when the buy button should be offered.
	Purchasable bool
}

func (c *Catalog) Detail(id string) (DetailView, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return DetailView{
				Item:        it,
				Image:       DetailImageChain(it),
				PriceLabel:  FormatPrice(it.Price),
				Purchasable: it.Available && it.Price != nil && *it.Price > 0,
			}, true
		}
	}
	return DetailView{}, false
}

// ImageChain lists image candidates in the order they should be tried.
type ImageChain []string

func (c ImageChain) Primary() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

func (c ImageChain) Fallbacks() []string {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// GridImageChain is optimized thumb, plain thumbs/ copy, then the raw
// thumbnail.
func GridImageChain(it domain.CatalogItem) ImageChain {
	base := it.RawThumbnail()
	ref, ok := domain.ParseAssetPath(base)
	first, second := it.OptimizedThumbnail, ""
	if ok {
		if first == "" {
			first = ref.Path(domain.KindOptimizedThumb)
		}
		second = ref.Path(domain.KindThumb)
	}
	return compactChain(first, second, base)
}

// DetailImageChain is optimized full image, then the raw original.
func DetailImageChain(it domain.CatalogItem) ImageChain {
	base := it.RawImage()
	first := it.OptimizedImage
	if first == "" {
		if ref, ok := domain.ParseAssetPath(base); ok {
			first = ref.Path(domain.KindOptimized)
		}
	}
	return compactChain(first, base)
}

func compactChain(candidates ...string) ImageChain {
	out := make(ImageChain, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type Prober interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Resolve drops leading candidates the prober cannot find. The last
// candidate is always kept.
func Resolve(ctx context.Context, chain ImageChain, p Prober) ImageChain {
	if len(chain) == 0 || p == nil {
		return chain
	}
	for i, cand := range chain[:len(chain)-1] {
		if ok, err := p.Exists(ctx, cand); err == nil && ok {
			return chain[i:]
		}
	}
	return chain[len(chain)-1:]
}

// ResolveImage returns the first candidate the prober confirms, else the
// last one.
func ResolveImage(ctx context.Context, chain ImageChain, p Prober) string {
	return Resolve(ctx, chain, p).Primary()
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders $1,200 style prices, or a dash when there is none.
func FormatPrice(p *float64) string {
	if p == nil {
		return noPriceDisplay
	}
	return pricePrinter.Sprintf("$%v", number.Decimal(*p, number.MaxFractionDigits(2)))
}
