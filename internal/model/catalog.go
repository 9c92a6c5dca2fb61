package model

import "time"

// Product is a storefront catalog entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	URL      string  `json:"url"`
	InStock  bool    `json:"inStock"`
}

// OrderStatus is the storefront's view of one order.
type OrderStatus struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	ETA       *time.Time `json:"eta,omitempty"`
	TotalDue  float64    `json:"totalDue"`
	Currency  string     `json:"currency"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SocialPost is the resolved detail of a shared social-platform link.
type SocialPost struct {
	Caption   string    `json:"caption"`
	Permalink string    `json:"permalink"`
	CreatedAt time.Time `json:"createdAt"`
}
