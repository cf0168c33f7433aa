package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicdesk/clinic-assistant/internal/auth"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

// Fires N concurrent schedule requests for the same doctor and the same
// half-hour window, then reports how many were accepted. Exactly one 201
// with the rest rejected as conflicts means the per-doctor lock holds.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := flag.String("base-url", "http://127.0.0.1:8080", "API base URL")
	doctorID := flag.Int64("doctor", 1, "doctor id to contend on")
	workers := flag.Int("workers", 25, "concurrent booking attempts")
	date := flag.String("date", time.Now().AddDate(0, 0, 1).Format(scheduling.DateLayout), "appointment date (YYYY-MM-DD)")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	start := *date + "T10:00:00"
	end := *date + "T10:30:00"
	log.Printf("racing %d workers for doctor %d at %s", *workers, *doctorID, start)

	client := &http.Client{Timeout: 10 * time.Second}

	var created, conflicted, other int64
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		patientID := int64(i + 1)
		go func() {
			defer wg.Done()

			token, err := mintToken(secret, patientID)
			if err != nil {
				log.Printf("worker %d: mint token: %v", patientID, err)
				atomic.AddInt64(&other, 1)
				return
			}

			status, body, err := book(client, *baseURL, token, *doctorID, start, end)
			if err != nil {
				log.Printf("worker %d: request failed: %v", patientID, err)
				atomic.AddInt64(&other, 1)
				return
			}

			switch status {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				log.Printf("worker %d: unexpected %d: %s", patientID, status, body)
				atomic.AddInt64(&other, 1)
			}
		}()
	}
	wg.Wait()

	log.Printf("created=%d conflicted=%d other=%d", created, conflicted, other)
	if created != 1 {
		log.Fatalf("expected exactly one booking to win, got %d", created)
	}
	log.Println("double-booking prevented")
}

func mintToken(secret string, patientID int64) (string, error) {
	claims := auth.Claims{
		UserID: patientID,
		Role:   auth.RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func book(client *http.Client, baseURL, token string, doctorID int64, start, end string) (int, string, error) {
	payload, err := json.Marshal(map[string]any{
		"doctor_id":  doctorID,
		"start_time": start,
		"end_time":   end,
		"type":       "consultation",
	})
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/appointments/schedule", bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}
