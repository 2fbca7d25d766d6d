package domain

import "time"

// Comment is a customer review of a product. Rating 0 means no rating was
// given; otherwise it is 1..5.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"productId"`
	Author    string    `db:"author" json:"author"`
	Email     string    `db:"email" json:"email,omitempty"`
	Comment   string    `db:"comment" json:"comment"`
	Rating    int       `db:"rating" json:"rating,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
