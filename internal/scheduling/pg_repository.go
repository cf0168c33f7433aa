package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, start_time, end_time, type, status, conversation_summary, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.StartTime,
		&a.EndTime,
		&a.Type,
		&a.Status,
		&a.Summary,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindConflicts(ctx context.Context, doctorID int64, start, end time.Time, excludeID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'scheduled'
		  AND start_time < $2
		  AND end_time > $3
		  AND ($4 = 0 OR id <> $4)
		ORDER BY start_time
	`, doctorID, end, start, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}

	return collectAppointments(rows)
}

func (r *PgRepository) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, start_time, end_time, type, status, conversation_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6, now())
		RETURNING `+appointmentColumns+`
	`, appt.PatientID, appt.DoctorID, appt.StartTime, appt.EndTime, appt.Type, appt.Summary)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateInterval(ctx context.Context, id int64, start, end time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, start, end)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, status AppointmentStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID int64, from, to *time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND ($2::timestamp IS NULL OR start_time >= $2)
		  AND ($3::timestamp IS NULL OR start_time < $3)
		ORDER BY start_time
	`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list by doctor: %w", err)
	}

	return collectAppointments(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID int64, status AppointmentStatus) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY start_time
	`, patientID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list by patient: %w", err)
	}

	return collectAppointments(rows)
}
