// Package models defines the wire and in-memory data structures of the client.
package models

// Review is a single buyer review attached to an Item.
type Review struct {
	Title   string `json:"title,omitempty"`
	Rate    Number `json:"rate"`
	Date    string `json:"date,omitempty"`
	Content string `json:"content"`
}

// Item is a scraped product record. URL identifies it for display only.
type Item struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Image         string   `json:"image,omitempty"`
	Price         Number   `json:"price"`
	DiscountPrice Number   `json:"discount_price"`
	Rating        Number   `json:"rating"`
	RatingCount   Number   `json:"rating_count"`
	Sold          Number   `json:"sold"`
	Description   string   `json:"description,omitempty"`
	Reviews       []Review `json:"reviews,omitempty"`
}

// HasDiscount reports whether the item carries a usable discount price.
func (i Item) HasDiscount() bool {
	_, ok := i.DiscountPrice.Float()
	return ok
}

// Opinions returns the rating count, falling back to the number of attached reviews.
func (i Item) Opinions() (int, bool) {
	if v, ok := i.RatingCount.Float(); ok {
		return int(v), true
	}
	if i.Reviews != nil {
		return len(i.Reviews), true
	}
	return 0, false
}

// Dataset is the result of one search cycle. It is replaced wholesale, never mutated.
type Dataset struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	Items   []Item `json:"items"`
}

// SearchResult is the analysis service response: a dataset plus an optional analysis.
type SearchResult struct {
	Dataset
	Analysis *Analysis `json:"analysis,omitempty"`
}
