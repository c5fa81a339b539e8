package model

import "time"

// LineItem is a product requested by an RFQ. Quantity is always positive.
type LineItem struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Ref returns the product reference of the requested item.
func (l LineItem) Ref() ProductRef {
	return ProductRef{ID: l.ID, Name: l.ProductName}
}

// Quote is a buyer's request for quote.
type Quote struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Items            []LineItem `json:"items"`
	InvitedSuppliers []string   `json:"invited_suppliers"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	// MatrixOverride is the buyer's one-way "proceed now" flag.
	MatrixOverride bool `json:"matrix_override"`
	// MatrixVisible latches once the decision matrix has been shown.
	MatrixVisible bool      `json:"matrix_visible"`
	CreatedAt     time.Time `json:"created_at"`
}
