package entity

import "time"

// Deal is a passive child of Customer, cascade-deleted with it.
// No dedicated access control: visibility follows the owning customer.
type Deal struct {
	ID         int64
	CustomerID int64
	Title      string
	Amount     float64
	CreatedAt  time.Time
}
