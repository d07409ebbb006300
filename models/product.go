package models

import "encoding/json"

// Credentials is sent to the persistence service; it is never stored.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ProductRecord is a persisted product as listed by the persistence service.
type ProductRecord struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Image         string `json:"image"`
	Price         Number `json:"price"`
	DiscountPrice Number `json:"discountPrice"`
	Rating        Number `json:"rating"`
	RatingCount   Number `json:"ratingCount"`
	Sold          Number `json:"sold"`
	Description   string `json:"description"`
	Keyword       string `json:"keyword"`
}

// UnmarshalJSON accepts both camelCase and snake_case spellings of the
// multi-word numeric fields, since deployments of the service differ.
func (p *ProductRecord) UnmarshalJSON(data []byte) error {
	type plain ProductRecord
	var aux struct {
		plain
		DiscountPriceSnake Number `json:"discount_price"`
		RatingCountSnake   Number `json:"rating_count"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ProductRecord(aux.plain)
	if !p.DiscountPrice.Valid {
		p.DiscountPrice = aux.DiscountPriceSnake
	}
	if !p.RatingCount.Valid {
		p.RatingCount = aux.RatingCountSnake
	}
	return nil
}

// ProductPage is one page of the paginated product listing.
type ProductPage struct {
	Content       []ProductRecord `json:"content"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
	Number        int             `json:"number"`
	Size          int             `json:"size"`
}
