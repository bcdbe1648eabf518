package models

import (
	"time"
)

type User struct {
	ID             string
	CreatedAt      time.Time
	Username       string
	HashedPassword string
}
