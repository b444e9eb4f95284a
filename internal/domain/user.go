package domain

import "time"

// User is the owner of accounts. User management lives outside the ledger;
// only existence and the owning id matter here.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	Active    bool
}
