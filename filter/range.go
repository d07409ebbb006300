// Package filter derives selectable price and rating ranges from a dataset
// and applies the user's selection to it.
package filter

import (
	"math"
	"sync"

	"github.com/aluiziolira/smartmarket/models"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

// Bounds is the selectable envelope derived from a dataset.
type Bounds struct {
	PriceMin  float64
	PriceMax  float64
	RatingMin float64
	RatingMax float64
}

// Selection is the user's sub-range. Lo may exceed Hi; comparisons use the ordered pair.
type Selection struct {
	PriceLo  float64
	PriceHi  float64
	RatingLo float64
	RatingHi float64
}

// ComputeBounds returns the price envelope over finite positive prices and the
// rating envelope over finite non-negative ratings. With no ratings the rating
// envelope is 0..5; otherwise it spans at least one point.
func ComputeBounds(items []models.Item) Bounds {
	b := Bounds{RatingMin: 0, RatingMax: MaxRating}

	havePrice := false
	for _, it := range items {
		p, ok := it.Price.Float()
		if !ok || p <= 0 {
			continue
		}
		if !havePrice {
			b.PriceMin, b.PriceMax = p, p
			havePrice = true
			continue
		}
		b.PriceMin = math.Min(b.PriceMin, p)
		b.PriceMax = math.Max(b.PriceMax, p)
	}

	rmin, rmax := math.Inf(1), math.Inf(-1)
	for _, it := range items {
		r, ok := it.Rating.Float()
		if !ok || r < 0 {
			continue
		}
		rmin = math.Min(rmin, r)
		rmax = math.Max(rmax, r)
	}
	if !math.IsInf(rmin, 1) {
		b.RatingMin = rmin
		b.RatingMax = math.Max(rmin+1, math.Min(MaxRating, rmax))
	}
	return b
}

// Full returns a selection spanning the whole envelope.
func (b Bounds) Full() Selection {
	return Selection{
		PriceLo:  b.PriceMin,
		PriceHi:  b.PriceMax,
		RatingLo: b.RatingMin,
		RatingHi: b.RatingMax,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Apply returns, in order, the items that pass sel. An item with no price or a
// zero price always passes the price check; a missing rating counts as 0.
func Apply(items []models.Item, sel Selection, onlyDiscount bool) []models.Item {
	plo, phi := math.Min(sel.PriceLo, sel.PriceHi), math.Max(sel.PriceLo, sel.PriceHi)
	rlo, rhi := math.Min(sel.RatingLo, sel.RatingHi), math.Max(sel.RatingLo, sel.RatingHi)

	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		p := it.Price.OrZero()
		if p != 0 && (p < plo || p > phi) {
			continue
		}
		r := it.Rating.OrZero()
		if r < rlo || r > rhi {
			continue
		}
		if onlyDiscount && !it.HasDiscount() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// State holds the current dataset, its bounds and the user's selection.
type State struct {
	mu           sync.RWMutex
	dataset      *models.Dataset
	bounds       Bounds
	selection    Selection
	onlyDiscount bool
}

// New returns an empty state with the default rating envelope.
func New() *State {
	s := &State{}
	s.bounds = ComputeBounds(nil)
	s.selection = s.bounds.Full()
	return s
}

// SetDataset adopts ds, recomputes the bounds and resets the selection to
// span them. Passing the dataset already held is a no-op.
func (s *State) SetDataset(ds *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds == s.dataset {
		return
	}
	s.dataset = ds
	var items []models.Item
	if ds != nil {
		items = ds.Items
	}
	s.bounds = ComputeBounds(items)
	s.selection = s.bounds.Full()
	s.onlyDiscount = false
}

// SetPrice selects a price range, clamping both ends into the bounds.
func (s *State) SetPrice(lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.PriceLo = clamp(lo, s.bounds.PriceMin, s.bounds.PriceMax)
	s.selection.PriceHi = clamp(hi, s.bounds.PriceMin, s.bounds.PriceMax)
}

// SetRating selects a rating range, clamping both ends into the bounds.
func (s *State) SetRating(lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.RatingLo = clamp(lo, s.bounds.RatingMin, s.bounds.RatingMax)
	s.selection.RatingHi = clamp(hi, s.bounds.RatingMin, s.bounds.RatingMax)
}

// SetOnlyDiscount restricts the view to discounted items.
func (s *State) SetOnlyDiscount(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onlyDiscount = on
}

func (s *State) OnlyDiscount() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onlyDiscount
}

func (s *State) Dataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

func (s *State) Bounds() Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *State) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Items returns the filtered view of the current dataset.
func (s *State) Items() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return []models.Item{}
	}
	return Apply(s.dataset.Items, s.selection, s.onlyDiscount)
}
