package booking

import (
	"log"
	"sort"
	"time"

	"medlink-server/internal/models"
)

// ReminderLookaheadDays is the reminder window: approved upcoming
// appointments dated tomorrow through this many days out (inclusive)
// are surfaced as reminders. Same-day appointments are not reminded.
const ReminderLookaheadDays = 3

// Schedule is a patient's appointments partitioned for the dashboard.
type Schedule struct {
	Upcoming  []models.Appointment `json:"upcoming"`
	History   []models.Appointment `json:"history"`
	Reminders []models.Appointment `json:"reminders"`
}

// BuildSchedule partitions appointments as of the given date. Upcoming is
// everything dated today or later that is not completed or cancelled;
// the rest is history. Reminders are the approved upcoming appointments
// within the lookahead window. Rows with malformed dates are logged and
// skipped rather than failing the whole view. Pure: no store access.
func BuildSchedule(appts []models.Appointment, todayDate time.Time) Schedule {
	todayDate = time.Date(todayDate.Year(), todayDate.Month(), todayDate.Day(), 0, 0, 0, 0, todayDate.Location())
	horizon := todayDate.AddDate(0, 0, ReminderLookaheadDays)

	var sched Schedule
	for _, a := range appts {
		d, err := time.Parse(models.DateLayout, a.AppointmentDate)
		if err != nil {
			log.Printf("skipping appointment %s with malformed date %q: %v", a.ID, a.AppointmentDate, err)
			continue
		}

		done := a.Status == models.StatusCompleted || a.Status == models.StatusCancelled
		if d.Before(todayDate) || done {
			sched.History = append(sched.History, a)
			continue
		}

		sched.Upcoming = append(sched.Upcoming, a)
		if a.Status == models.StatusApproved && d.After(todayDate) && !d.After(horizon) {
			sched.Reminders = append(sched.Reminders, a)
		}
	}

	sortBySlot(sched.Upcoming)
	sortBySlot(sched.Reminders)
	sortBySlot(sched.History)
	return sched
}

func sortBySlot(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].AppointmentDate != appts[j].AppointmentDate {
			return appts[i].AppointmentDate < appts[j].AppointmentDate
		}
		ti, erri := time.Parse(models.TimeLayout, appts[i].AppointmentTime)
		tj, errj := time.Parse(models.TimeLayout, appts[j].AppointmentTime)
		if erri != nil || errj != nil {
			return appts[i].AppointmentTime < appts[j].AppointmentTime
		}
		return ti.Before(tj)
	})
}
