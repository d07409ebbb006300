package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aluiziolira/smartmarket/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// ValidateItem ensures an item carries the fields the persistence service requires.
func ValidateItem(it *models.Item) error {
	if it == nil {
		return fmt.Errorf("item is nil")
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("item missing title")
	}
	if strings.TrimSpace(it.URL) == "" {
		return fmt.Errorf("item missing url for %s", it.Title)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks the local@domain.tld shape of a normalized address.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(NormalizeEmail(email))
}

// NormalizeSource trims a search keyword or listing URL.
func NormalizeSource(source string) string {
	return strings.TrimSpace(source)
}

// ItemFromProduct maps a persisted product record onto the scraped item shape.
// Reviews are not persisted, so the result never carries any.
func ItemFromProduct(p models.ProductRecord) models.Item {
	return models.Item{
		Title:         p.Title,
		URL:           p.URL,
		Image:         p.Image,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Rating:        p.Rating,
		RatingCount:   p.RatingCount,
		Sold:          p.Sold,
		Description:   p.Description,
	}
}

// DatasetFromPage builds the dataset that replaces a scraped one after a persisted re-query.
func DatasetFromPage(keyword string, page *models.ProductPage) *models.Dataset {
	items := make([]models.Item, 0)
	if page != nil {
		items = make([]models.Item, 0, len(page.Content))
		for _, rec := range page.Content {
			items = append(items, ItemFromProduct(rec))
		}
	}
	return &models.Dataset{
		Keyword: keyword,
		Count:   len(items),
		Items:   items,
	}
}
