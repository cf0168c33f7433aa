package api

import (
	"time"

	"github.com/clinicdesk/clinic-assistant/internal/chat"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

type ScheduleAppointmentRequest struct {
	DoctorID            int64  `json:"doctor_id" validate:"required"`
	StartTime           string `json:"start_time" validate:"required"`
	EndTime             string `json:"end_time" validate:"required"`
	Type                string `json:"type" validate:"required,oneof=consultation follow-up emergency"`
	ConversationSummary string `json:"conversation_summary"`
}

type RescheduleAppointmentRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type ChatMessageRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id"`
}

// AppointmentResponse renders start/end as local wall-clock strings, the
// same convention the engine stores.
type AppointmentResponse struct {
	ID                  int64     `json:"id"`
	PatientID           int64     `json:"patient_id"`
	DoctorID            int64     `json:"doctor_id"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	Type                string    `json:"type"`
	Status              string    `json:"status"`
	ConversationSummary string    `json:"conversation_summary"`
	CreatedAt           time.Time `json:"created_at"`
}

func toAppointmentResponse(a scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                  a.ID,
		PatientID:           a.PatientID,
		DoctorID:            a.DoctorID,
		StartTime:           scheduling.FormatLocalTime(a.StartTime),
		EndTime:             scheduling.FormatLocalTime(a.EndTime),
		Type:                string(a.Type),
		Status:              string(a.Status),
		ConversationSummary: a.Summary,
		CreatedAt:           a.CreatedAt,
	}
}

func toAppointmentResponses(appts []scheduling.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityResponse struct {
	DoctorID       int64          `json:"doctor_id"`
	Date           string         `json:"date"`
	Duration       int            `json:"duration"`
	AvailableSlots []SlotResponse `json:"available_slots"`
}

type CancelResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type DoctorResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Email     string `json:"email"`
}

func toDoctorResponses(doctors []directory.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, DoctorResponse{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
			Email:     d.Email,
		})
	}
	return out
}

type ChatMessageResponse struct {
	SessionID string          `json:"session_id"`
	Response  string          `json:"response"`
	ToolCalls []chat.ToolCall `json:"tool_calls"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
