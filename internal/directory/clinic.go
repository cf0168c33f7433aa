package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrClinicInfoNotFound = errors.New("clinic information not found")

const clinicInfoKey = "clinic:info"

// ClinicStore serves static clinic metadata (name, hours, location, contact)
// out of a Redis hash seeded at deploy time.
type ClinicStore struct {
	client *redis.Client
}

func NewClinicStore(client *redis.Client) *ClinicStore {
	return &ClinicStore{client: client}
}

func (s *ClinicStore) Get(ctx context.Context) (map[string]string, error) {
	info, err := s.client.HGetAll(ctx, clinicInfoKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load clinic info: %w", err)
	}
	if len(info) == 0 {
		return nil, ErrClinicInfoNotFound
	}
	return info, nil
}

func (s *ClinicStore) Set(ctx context.Context, info map[string]string) error {
	if len(info) == 0 {
		return errors.New("clinic info must not be empty")
	}
	fields := make([]any, 0, len(info)*2)
	for k, v := range info {
		fields = append(fields, k, v)
	}
	if err := s.client.HSet(ctx, clinicInfoKey, fields...).Err(); err != nil {
		return fmt.Errorf("store clinic info: %w", err)
	}
	return nil
}
