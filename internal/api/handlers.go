package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
	"github.com/clinicdesk/clinic-assistant/internal/chat"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

func availabilityHandler(sched *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorIDStr := r.URL.Query().Get("doctor_id")
		date := r.URL.Query().Get("date")
		durationStr := r.URL.Query().Get("duration")

		if doctorIDStr == "" || date == "" || durationStr == "" {
			writeError(w, http.StatusBadRequest, "doctor_id, date, and duration are required")
			return
		}

		doctorID, err := strconv.ParseInt(doctorIDStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "doctor_id must be an integer")
			return
		}

		duration, err := strconv.Atoi(durationStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "duration must be an integer")
			return
		}

		slots, err := sched.CheckAvailability(r.Context(), doctorID, date, duration)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		out := make([]SlotResponse, 0, len(slots))
		for _, slot := range slots {
			out = append(out, SlotResponse{
				StartTime: scheduling.FormatLocalTime(slot.StartTime),
				EndTime:   scheduling.FormatLocalTime(slot.EndTime),
			})
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:       doctorID,
			Date:           date,
			Duration:       duration,
			AvailableSlots: out,
		})
	}
}

func scheduleAppointmentHandler(sched *scheduling.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req ScheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusBadRequest, "doctor_id, start_time, end_time, and a valid type are required")
			return
		}

		start, err := scheduling.ParseLocalTime(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_time must be in YYYY-MM-DDTHH:MM:SS format")
			return
		}
		end, err := scheduling.ParseLocalTime(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be in YYYY-MM-DDTHH:MM:SS format")
			return
		}

		appt, err := sched.Schedule(r.Context(), scheduling.ScheduleRequest{
			PatientID: principal.ID,
			DoctorID:  req.DoctorID,
			StartTime: start,
			EndTime:   end,
			Type:      scheduling.AppointmentType(req.Type),
			Summary:   req.ConversationSummary,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func cancelAppointmentHandler(sched *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "appointment id must be an integer")
			return
		}

		actor := scheduling.Actor{ID: principal.ID, Role: principal.Role}
		if err := sched.Cancel(r.Context(), actor, id); err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CancelResponse{
			Message: "Appointment cancelled successfully",
			ID:      id,
		})
	}
}

func rescheduleAppointmentHandler(sched *scheduling.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "appointment id must be an integer")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusBadRequest, "start_time and end_time are required")
			return
		}

		start, err := scheduling.ParseLocalTime(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_time must be in YYYY-MM-DDTHH:MM:SS format")
			return
		}
		end, err := scheduling.ParseLocalTime(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be in YYYY-MM-DDTHH:MM:SS format")
			return
		}

		actor := scheduling.Actor{ID: principal.ID, Role: principal.Role}
		appt, err := sched.Reschedule(r.Context(), actor, id, start, end)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func listMyAppointmentsHandler(sched *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		status := scheduling.AppointmentStatus(r.URL.Query().Get("status"))
		switch status {
		case "", scheduling.StatusScheduled, scheduling.StatusCancelled:
		default:
			writeError(w, http.StatusBadRequest, "status must be scheduled or cancelled")
			return
		}

		appts, err := sched.ListByPatient(r.Context(), principal.ID, status)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"appointments": toAppointmentResponses(appts),
		})
	}
}

func doctorAppointmentsHandler(sched *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "doctor id must be an integer")
			return
		}

		var from, to *time.Time
		if s := r.URL.Query().Get("start_date"); s != "" {
			day, err := time.Parse(scheduling.DateLayout, s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
				return
			}
			from = &day
		}
		if s := r.URL.Query().Get("end_date"); s != "" {
			day, err := time.Parse(scheduling.DateLayout, s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
				return
			}
			// end_date is inclusive
			bound := day.Add(24 * time.Hour)
			to = &bound
		}

		appts, err := sched.ListByDoctor(r.Context(), doctorID, from, to)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"appointments": toAppointmentResponses(appts),
		})
	}
}

func listDoctorsHandler(dir directory.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := dir.ListDoctors(r.Context(), r.URL.Query().Get("specialty"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load doctors")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"doctors": toDoctorResponses(doctors),
		})
	}
}

func clinicInfoHandler(clinic *directory.ClinicStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := clinic.Get(r.Context())
		if err != nil {
			if errors.Is(err, directory.ErrClinicInfoNotFound) {
				writeError(w, http.StatusNotFound, "clinic information not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load clinic info")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func chatMessageHandler(chatSvc *chat.Service, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req ChatMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		result, err := chatSvc.HandleMessage(r.Context(), principal.ID, req.SessionID, req.Message)
		if err != nil {
			handleChatError(w, err)
			return
		}

		toolCalls := result.ToolCalls
		if toolCalls == nil {
			toolCalls = []chat.ToolCall{}
		}

		writeJSON(w, http.StatusOK, ChatMessageResponse{
			SessionID: result.SessionID,
			Response:  result.Response,
			ToolCalls: toolCalls,
		})
	}
}

func chatHistoryHandler(chatSvc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sessionID := chi.URLParam(r, "sessionID")

		history, err := chatSvc.History(r.Context(), principal.ID, sessionID)
		if err != nil {
			handleChatError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, history)
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDuration),
		errors.Is(err, scheduling.ErrInvalidType),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, scheduling.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not authorized to modify this appointment")
	case errors.Is(err, scheduling.ErrTimeConflict),
		errors.Is(err, scheduling.ErrScheduleBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, chat.ErrNotSessionOwner):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, chat.ErrToolRoundsExceeded),
		errors.Is(err, agent.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "assistant is unavailable right now, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "failed to process message")
	}
}
