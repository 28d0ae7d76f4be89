package entity

import "time"

// Customer belongs to exactly one User (the owner). Only the owner may
// read, update or delete it.
type Customer struct {
	ID        int64
	UserID    int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
