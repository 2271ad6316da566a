package models

import (
	"fmt"
)

// Deal is a single scraped deal candidate from a category feed
type Deal struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	URL         string  `json:"url"`
	Category    string  `json:"category"`
}

// Opportunity is a deal whose estimated market value exceeds its
// advertised price by at least the configured threshold
type Opportunity struct {
	Deal     Deal    `json:"deal"`
	Estimate float64 `json:"estimate"`
	Discount float64 `json:"discount"`
}

// TableRow renders the opportunity as a display-ready results row:
// description, price, estimate, discount, and an HTML link cell.
func (o *Opportunity) TableRow() []string {
	return []string{
		o.Deal.Description,
		fmt.Sprintf("$%.2f", o.Deal.Price),
		fmt.Sprintf("$%.2f", o.Estimate),
		fmt.Sprintf("$%.2f", o.Discount),
		fmt.Sprintf("<a href=\"%s\" target=\"_blank\">View Deal</a>", o.Deal.URL),
	}
}
