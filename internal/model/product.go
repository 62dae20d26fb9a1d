package model

import (
	"time"
)

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // smallest currency unit
	CreatedAt time.Time `json:"created_at"`
}
