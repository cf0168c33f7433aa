package directory

import (
	"context"
	"errors"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// Repository is the read-only directory of doctors and patients.
type Repository interface {
	ListDoctors(ctx context.Context, specialty string) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
}
