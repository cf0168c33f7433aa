package main

import (
	"context"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-assistant/internal/config"
	"github.com/clinicdesk/clinic-assistant/internal/db"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/redisclient"
)

const schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	specialty TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS patients (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	patient_id BIGINT NOT NULL REFERENCES patients (id),
	doctor_id BIGINT NOT NULL REFERENCES doctors (id),
	start_time TIMESTAMP NOT NULL,
	end_time TIMESTAMP NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('consultation', 'follow-up', 'emergency')),
	status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'cancelled')),
	conversation_summary TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_appointments_doctor_window
	ON appointments (doctor_id, start_time, end_time);
CREATE INDEX IF NOT EXISTS idx_appointments_patient
	ON appointments (patient_id, status);
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	log.Println("schema ready")

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(ctx, pool); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(ctx, pool, 50); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedClinicInfo(ctx, directory.NewClinicStore(rdb)); err != nil {
		log.Fatalf("seed clinic info: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool) error {
	doctors := []struct {
		name      string
		specialty string
		email     string
	}{
		{"Dr. Sarah Williams", "Cardiologist", "sarah.williams@healthcareplus.example"},
		{"Dr. Michael Chen", "Dermatologist", "michael.chen@healthcareplus.example"},
		{"Dr. Emily Rodriguez", "General Practitioner", "emily.rodriguez@healthcareplus.example"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, d := range doctors {
		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (name, specialty, email)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO NOTHING
		`, d.name, d.specialty, d.email)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("doctors seeded: %d", len(doctors))
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (name, email, phone)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO NOTHING
		`, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("patients seeded")
	return nil
}

func seedClinicInfo(ctx context.Context, store *directory.ClinicStore) error {
	info := map[string]string{
		"name":    "HealthCare Plus Medical Center",
		"hours":   "Monday-Friday 8:00 AM - 5:00 PM",
		"address": "123 Medical Plaza Drive, Suite 100",
		"phone":   "(555) 123-4567",
		"email":   "info@healthcareplus.example",
	}
	if err := store.Set(ctx, info); err != nil {
		return err
	}
	log.Println("clinic info seeded")
	return nil
}
