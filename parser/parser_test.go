package parser

import (
	"testing"

	"github.com/aluiziolira/smartmarket/models"
)

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *models.Item
		wantErr bool
	}{
		{
			name: "valid item",
			item: &models.Item{
				Title: "Celular Moto G",
				URL:   "https://articulo.example.test/MCO-1",
				Price: models.NewNumber(599900),
			},
			wantErr: false,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: true,
		},
		{
			name: "missing title",
			item: &models.Item{
				Title: "  ",
				URL:   "https://articulo.example.test/MCO-1",
			},
			wantErr: true,
		},
		{
			name: "missing url",
			item: &models.Item{
				Title: "Celular Moto G",
			},
			wantErr: true,
		},
		{
			name: "missing numbers are fine",
			item: &models.Item{
				Title: "Sin precio",
				URL:   "https://articulo.example.test/MCO-2",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{input: "user@example.com", expected: true},
		{input: "  User@Example.COM ", expected: true},
		{input: "bad@x.co", expected: true},
		{input: "bad@x.c", expected: false},
		{input: "no-at-sign.com", expected: false},
		{input: "two@@example.com", expected: false},
		{input: "space in@example.com", expected: false},
		{input: "user@nodot", expected: false},
		{input: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidEmail(tt.input); got != tt.expected {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Example.COM\n"); got != "ana@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestDatasetFromPage(t *testing.T) {
	page := &models.ProductPage{
		Content: []models.ProductRecord{
			{ID: 1, Title: "A", URL: "http://x/a", Price: models.NewNumber(100), DiscountPrice: models.NewNumber(90)},
			{ID: 2, Title: "B", URL: "http://x/b"},
		},
		TotalElements: 40,
	}

	ds := DatasetFromPage("phone", page)
	if ds.Keyword != "phone" {
		t.Errorf("keyword = %q", ds.Keyword)
	}
	if ds.Count != 2 || len(ds.Items) != 2 {
		t.Fatalf("count = %d items = %d, want 2/2", ds.Count, len(ds.Items))
	}
	if ds.Items[0].Title != "A" || !ds.Items[0].HasDiscount() {
		t.Errorf("first item not mapped: %+v", ds.Items[0])
	}
	if ds.Items[1].Reviews != nil {
		t.Errorf("persisted items carry no reviews")
	}
}

func TestDatasetFromNilPage(t *testing.T) {
	ds := DatasetFromPage("", nil)
	if ds.Count != 0 || ds.Items == nil {
		t.Fatalf("expected empty non-nil items, got %+v", ds)
	}
}
