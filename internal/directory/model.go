package directory

import "time"

type Doctor struct {
	ID        int64
	Name      string
	Specialty string
	Email     string
	CreatedAt time.Time
}

type Patient struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
