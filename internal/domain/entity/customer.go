package entity

import "time"

// Customer representa un cliente al que se le registran ventas.
type Customer struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
