package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

// Tool names form a closed set; dispatch never interpolates an agent-supplied
// string into anything but this lookup.
const (
	ToolGetClinicInfo          = "get_clinic_info"
	ToolListDoctors            = "list_doctors"
	ToolCheckAvailability      = "check_availability"
	ToolScheduleAppointment    = "schedule_appointment"
	ToolCancelAppointment      = "cancel_appointment"
	ToolRescheduleAppointment  = "reschedule_appointment"
	ToolGetPatientAppointments = "get_patient_appointments"
)

// Tools is the declared tool set sent to the agent on every call.
var Tools = []agent.Tool{
	{
		Name:        ToolGetClinicInfo,
		Description: "Get information about the clinic including hours, location, and contact details",
		InputSchema: json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
	{
		Name:        ToolListDoctors,
		Description: "Get a list of all available doctors with their specialties",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"specialty":{"type":"string","description":"Optional: Filter doctors by specialty (e.g., Cardiologist, Dermatologist)"}},"required":[]}`),
	},
	{
		Name:        ToolCheckAvailability,
		Description: "Check available time slots for a specific doctor on a given date",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"doctor_id":{"type":"number","description":"The ID of the doctor"},"date":{"type":"string","description":"Date in YYYY-MM-DD format"},"duration":{"type":"number","description":"Appointment duration in minutes (30 or 60)","enum":[30,60]}},"required":["doctor_id","date","duration"]}`),
	},
	{
		Name:        ToolScheduleAppointment,
		Description: "Schedule a new appointment for the patient",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"doctor_id":{"type":"number","description":"The ID of the doctor"},"start_time":{"type":"string","description":"Start time in YYYY-MM-DDTHH:MM:SS format"},"end_time":{"type":"string","description":"End time in YYYY-MM-DDTHH:MM:SS format"},"type":{"type":"string","description":"Type of appointment","enum":["consultation","follow-up","emergency"]},"summary":{"type":"string","description":"Brief summary of the reason for visit and conversation context"}},"required":["doctor_id","start_time","end_time","type","summary"]}`),
	},
	{
		Name:        ToolCancelAppointment,
		Description: "Cancel an existing appointment",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"appointment_id":{"type":"number","description":"The ID of the appointment to cancel"}},"required":["appointment_id"]}`),
	},
	{
		Name:        ToolRescheduleAppointment,
		Description: "Reschedule an existing appointment to a new time",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"appointment_id":{"type":"number","description":"The ID of the appointment to reschedule"},"start_time":{"type":"string","description":"New start time in YYYY-MM-DDTHH:MM:SS format"},"end_time":{"type":"string","description":"New end time in YYYY-MM-DDTHH:MM:SS format"}},"required":["appointment_id","start_time","end_time"]}`),
	},
	{
		Name:        ToolGetPatientAppointments,
		Description: "Get all upcoming appointments for the current patient",
		InputSchema: json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
}

// Dispatcher executes agent tool requests against the scheduling engine and
// the read-only collaborators. The acting patient is always the
// authenticated one; tools never accept a patient id from the agent.
type Dispatcher struct {
	sched  *scheduling.Service
	dir    directory.Repository
	clinic *directory.ClinicStore
	log    zerolog.Logger
}

func NewDispatcher(sched *scheduling.Service, dir directory.Repository, clinic *directory.ClinicStore, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sched:  sched,
		dir:    dir,
		clinic: clinic,
		log:    log,
	}
}

// Execute runs one tool invocation and always returns a result payload,
// never an error: failures are folded into {"error": ...} so the agent can
// react to them in natural language.
func (d *Dispatcher) Execute(ctx context.Context, patientID int64, name string, input json.RawMessage) any {
	result, err := d.execute(ctx, patientID, name, input)
	if err != nil {
		d.log.Warn().
			Str("tool", name).
			Int64("patient_id", patientID).
			Err(err).
			Msg("tool execution failed")
		return map[string]any{"error": err.Error()}
	}
	return result
}

func (d *Dispatcher) execute(ctx context.Context, patientID int64, name string, input json.RawMessage) (any, error) {
	switch name {
	case ToolGetClinicInfo:
		return d.clinic.Get(ctx)

	case ToolListDoctors:
		var args struct {
			Specialty string `json:"specialty"`
		}
		if err := unmarshalArgs(input, &args); err != nil {
			return nil, err
		}
		return d.listDoctors(ctx, args.Specialty)

	case ToolCheckAvailability:
		var args struct {
			DoctorID int64  `json:"doctor_id"`
			Date     string `json:"date"`
			Duration int    `json:"duration"`
		}
		if err := unmarshalArgs(input, &args); err != nil {
			return nil, err
		}
		return d.checkAvailability(ctx, args.DoctorID, args.Date, args.Duration)

	case ToolScheduleAppointment:
		var args struct {
			DoctorID  int64  `json:"doctor_id"`
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
			Type      string `json:"type"`
			Summary   string `json:"summary"`
		}
		if err := unmarshalArgs(input, &args); err != nil {
			return nil, err
		}
		return d.scheduleAppointment(ctx, patientID, args.DoctorID, args.StartTime, args.EndTime, args.Type, args.Summary)

	case ToolCancelAppointment:
		var args struct {
			AppointmentID int64 `json:"appointment_id"`
		}
		if err := unmarshalArgs(input, &args); err != nil {
			return nil, err
		}
		return d.cancelAppointment(ctx, patientID, args.AppointmentID)

	case ToolRescheduleAppointment:
		var args struct {
			AppointmentID int64  `json:"appointment_id"`
			StartTime     string `json:"start_time"`
			EndTime       string `json:"end_time"`
		}
		if err := unmarshalArgs(input, &args); err != nil {
			return nil, err
		}
		return d.rescheduleAppointment(ctx, patientID, args.AppointmentID, args.StartTime, args.EndTime)

	case ToolGetPatientAppointments:
		return d.patientAppointments(ctx, patientID)

	default:
		return nil, fmt.Errorf("Unknown tool: %s", name)
	}
}

func unmarshalArgs(input json.RawMessage, into any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, into); err != nil {
		return fmt.Errorf("invalid tool arguments: %v", err)
	}
	return nil
}

func (d *Dispatcher) listDoctors(ctx context.Context, specialty string) (any, error) {
	doctors, err := d.dir.ListDoctors(ctx, specialty)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(doctors))
	for _, doc := range doctors {
		out = append(out, map[string]any{
			"id":        doc.ID,
			"name":      doc.Name,
			"specialty": doc.Specialty,
			"email":     doc.Email,
		})
	}
	return map[string]any{"doctors": out}, nil
}

func (d *Dispatcher) checkAvailability(ctx context.Context, doctorID int64, date string, duration int) (any, error) {
	slots, err := d.sched.CheckAvailability(ctx, doctorID, date, duration)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, map[string]string{
			"start_time": scheduling.FormatLocalTime(slot.StartTime),
			"end_time":   scheduling.FormatLocalTime(slot.EndTime),
		})
	}

	return map[string]any{
		"doctor_id":       doctorID,
		"date":            date,
		"duration":        duration,
		"available_slots": out,
	}, nil
}

func (d *Dispatcher) scheduleAppointment(ctx context.Context, patientID, doctorID int64, startTime, endTime, apptType, summary string) (any, error) {
	start, err := scheduling.ParseLocalTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: must be YYYY-MM-DDTHH:MM:SS")
	}
	end, err := scheduling.ParseLocalTime(endTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: must be YYYY-MM-DDTHH:MM:SS")
	}

	appt, err := d.sched.Schedule(ctx, scheduling.ScheduleRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Type:      scheduling.AppointmentType(apptType),
		Summary:   summary,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"appointment": appointmentPayload(*appt),
	}, nil
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, patientID, appointmentID int64) (any, error) {
	actor := scheduling.Actor{ID: patientID, Role: scheduling.RolePatient}
	if err := d.sched.Cancel(ctx, actor, appointmentID); err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": "Appointment cancelled successfully",
	}, nil
}

func (d *Dispatcher) rescheduleAppointment(ctx context.Context, patientID, appointmentID int64, startTime, endTime string) (any, error) {
	start, err := scheduling.ParseLocalTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: must be YYYY-MM-DDTHH:MM:SS")
	}
	end, err := scheduling.ParseLocalTime(endTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: must be YYYY-MM-DDTHH:MM:SS")
	}

	actor := scheduling.Actor{ID: patientID, Role: scheduling.RolePatient}
	appt, err := d.sched.Reschedule(ctx, actor, appointmentID, start, end)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"appointment": appointmentPayload(*appt),
	}, nil
}

func (d *Dispatcher) patientAppointments(ctx context.Context, patientID int64) (any, error) {
	appts, err := d.sched.ListByPatient(ctx, patientID, scheduling.StatusScheduled)
	if err != nil {
		return nil, err
	}

	doctors := map[int64]*directory.Doctor{}
	out := make([]map[string]any, 0, len(appts))
	for _, appt := range appts {
		payload := appointmentPayload(appt)

		doc, ok := doctors[appt.DoctorID]
		if !ok {
			doc, err = d.dir.GetDoctorByID(ctx, appt.DoctorID)
			if err != nil && !errors.Is(err, directory.ErrDoctorNotFound) {
				return nil, err
			}
			doctors[appt.DoctorID] = doc
		}
		if doc != nil {
			payload["doctor_name"] = doc.Name
			payload["doctor_specialty"] = doc.Specialty
		}

		out = append(out, payload)
	}

	return map[string]any{"appointments": out}, nil
}

func appointmentPayload(a scheduling.Appointment) map[string]any {
	return map[string]any{
		"id":                   a.ID,
		"patient_id":           a.PatientID,
		"doctor_id":            a.DoctorID,
		"start_time":           scheduling.FormatLocalTime(a.StartTime),
		"end_time":             scheduling.FormatLocalTime(a.EndTime),
		"type":                 string(a.Type),
		"status":               string(a.Status),
		"conversation_summary": a.Summary,
	}
}
