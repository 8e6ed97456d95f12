package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"medlink-server/internal/models"
	"medlink-server/internal/notify"
	"medlink-server/internal/redislock"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	users   map[string]*models.User
	appts   map[string]*models.Appointment
	records map[string]*models.PatientRecord

	createCalls int
	failCounts  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   map[string]*models.User{},
		appts:   map[string]*models.Appointment{},
		records: map[string]*models.PatientRecord{},
	}
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) CountActiveInSlot(_ context.Context, doctorID, date, timeOfDay, excludeID string) (int64, error) {
	if r.failCounts {
		return 0, errors.New("store unreachable")
	}
	var n int64
	for _, a := range r.appts {
		if a.ID == excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.AppointmentDate == date && a.AppointmentTime == timeOfDay && IsActive(a.Status) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CreateAppointmentWithRecord(_ context.Context, appt *models.Appointment, rec *models.PatientRecord) error {
	r.createCalls++
	appt.ID = fmt.Sprintf("appt-%d", len(r.appts)+1)
	rec.ID = fmt.Sprintf("rec-%d", len(r.records)+1)
	rec.AppointmentID = &appt.ID
	stored := *appt
	r.appts[appt.ID] = &stored
	storedRec := *rec
	r.records[rec.ID] = &storedRec
	return nil
}

func (r *fakeRepo) SaveAppointment(_ context.Context, appt *models.Appointment) error {
	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

func (r *fakeRepo) UpdateAppointmentStatus(_ context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != from {
		return nil, ErrInvalidTransition
	}
	a.Status = to
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) DeleteAppointment(_ context.Context, id string) error {
	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *fakeRepo) GetRecordByAppointmentID(_ context.Context, appointmentID string) (*models.PatientRecord, error) {
	for _, rec := range r.records {
		if rec.AppointmentID != nil && *rec.AppointmentID == appointmentID {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) SaveRecord(_ context.Context, rec *models.PatientRecord) error {
	stored := *rec
	r.records[rec.ID] = &stored
	return nil
}

func (r *fakeRepo) ListAppointmentsByPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// fakeLocker runs the critical section inline.
type fakeLocker struct {
	keys []string
	busy bool
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	if l.busy {
		return redislock.ErrLockNotAcquired
	}
	l.keys = append(l.keys, slotKey)
	return fn(ctx)
}

// fakeNotifier records notifications and optionally fails.
type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (n *fakeNotifier) SendAppointmentUpdate(_ context.Context, msg notify.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(models.DateLayout)
}

func testFixture() (*fakeRepo, *fakeLocker, *fakeNotifier, *Service) {
	repo := newFakeRepo()
	repo.users["pat-1"] = &models.User{BaseModel: models.BaseModel{ID: "pat-1"}, Email: "ana@example.com", FirstName: "Ana", LastName: "Reyes", Role: models.RolePatient}
	repo.users["pat-2"] = &models.User{BaseModel: models.BaseModel{ID: "pat-2"}, Email: "ben@example.com", FirstName: "Ben", LastName: "Cruz", Role: models.RolePatient}
	repo.users["doc-1"] = &models.User{BaseModel: models.BaseModel{ID: "doc-1"}, Email: "lee@clinic.example", FirstName: "Dr.", LastName: "Lee", Role: models.RoleDoctor, Bookable: true}
	repo.users["doc-2"] = &models.User{BaseModel: models.BaseModel{ID: "doc-2"}, Email: "tan@clinic.example", FirstName: "Dr.", LastName: "Tan", Role: models.RoleDoctor, Bookable: false}

	locker := &fakeLocker{}
	notifier := &fakeNotifier{}
	return repo, locker, notifier, NewService(repo, locker, notifier)
}

func TestBookCreatesPendingAppointmentAndRecord(t *testing.T) {
	repo, locker, notifier, svc := testFixture()
	actor := Actor{ID: "pat-1", Role: models.RolePatient}

	appt, warnings, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1",
		Date:     futureDate(2),
		Time:     "09:00 AM",
		Reason:   "check-up",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if appt.Status != models.StatusPending {
		t.Fatalf("status = %s, want Pending", appt.Status)
	}
	if appt.PatientID != "pat-1" {
		t.Fatalf("patient = %s, want pat-1", appt.PatientID)
	}
	if appt.DoctorName != "Dr. Lee" {
		t.Fatalf("doctor name = %q, want %q", appt.DoctorName, "Dr. Lee")
	}

	if _, err := repo.GetRecordByAppointmentID(context.Background(), appt.ID); err != nil {
		t.Fatalf("expected a linked patient record: %v", err)
	}
	if len(locker.keys) != 1 {
		t.Fatalf("slot lock acquired %d times, want 1", len(locker.keys))
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Status != "Booked" {
		t.Fatalf("notifications = %+v, want one Booked notice", notifier.sent)
	}
}

func TestBookRejectsOccupiedSlot(t *testing.T) {
	repo, _, _, svc := testFixture()

	date := futureDate(3)
	repo.appts["appt-0"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-0"}, PatientID: "pat-2", DoctorID: "doc-1",
		AppointmentDate: date, AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}

	actor := Actor{ID: "pat-1", Role: models.RolePatient}
	_, _, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1", Date: date, Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("error = %v, want ErrSlotConflict", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("createCalls = %d, want 0: no row may be written on conflict", repo.createCalls)
	}
}

func TestBookCancelledRowFreesSlot(t *testing.T) {
	repo, _, _, svc := testFixture()

	date := futureDate(3)
	repo.appts["appt-0"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-0"}, PatientID: "pat-2", DoctorID: "doc-1",
		AppointmentDate: date, AppointmentTime: "09:00 AM", Status: models.StatusCancelled,
	}

	actor := Actor{ID: "pat-1", Role: models.RolePatient}
	if _, _, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1", Date: date, Time: "09:00 AM", Reason: "check-up",
	}); err != nil {
		t.Fatalf("Book into a cancelled slot: %v", err)
	}
}

func TestBookUnavailableDoctor(t *testing.T) {
	_, _, _, svc := testFixture()
	actor := Actor{ID: "pat-1", Role: models.RolePatient}

	_, _, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-2", Date: futureDate(2), Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("error = %v, want ErrDoctorUnavailable", err)
	}
}

func TestBookRejectsPastAndMalformedDates(t *testing.T) {
	_, _, _, svc := testFixture()
	actor := Actor{ID: "pat-1", Role: models.RolePatient}

	_, _, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1", Date: futureDate(-1), Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("past date error = %v, want ErrInvalidDate", err)
	}

	_, _, err = svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1", Date: "tomorrow", Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("malformed date error = %v, want ErrInvalidDate", err)
	}
}

func TestBookPatientCannotBookForOthers(t *testing.T) {
	_, _, _, svc := testFixture()
	actor := Actor{ID: "pat-1", Role: models.RolePatient}

	_, _, err := svc.Book(context.Background(), actor, BookRequest{
		PatientID: "pat-2", DoctorID: "doc-1", Date: futureDate(2), Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestBookSlotBusyWhenLockHeld(t *testing.T) {
	_, locker, _, svc := testFixture()
	locker.busy = true
	actor := Actor{ID: "pat-1", Role: models.RolePatient}

	_, _, err := svc.Book(context.Background(), actor, BookRequest{
		DoctorID: "doc-1", Date: futureDate(2), Time: "09:00 AM", Reason: "check-up",
	})
	if !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("error = %v, want ErrSlotBusy", err)
	}
}

func TestRescheduleExcludesSelfFromConflictCheck(t *testing.T) {
	repo, _, _, svc := testFixture()

	date := futureDate(4)
	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1", DoctorName: "Dr. Lee",
		AppointmentDate: date, AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}

	actor := Actor{ID: "pat-1", Role: models.RolePatient}
	appt, _, err := svc.Reschedule(context.Background(), actor, "appt-1", date, "09:00 AM")
	if err != nil {
		t.Fatalf("Reschedule into own slot: %v", err)
	}
	if appt.AppointmentTime != "09:00 AM" {
		t.Fatalf("time = %s, want 09:00 AM", appt.AppointmentTime)
	}
}

func TestRescheduleConflictsWithOtherAppointment(t *testing.T) {
	repo, _, _, svc := testFixture()

	date := futureDate(4)
	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: date, AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}
	repo.appts["appt-2"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-2"}, PatientID: "pat-2", DoctorID: "doc-1",
		AppointmentDate: date, AppointmentTime: "10:00 AM", Status: models.StatusPending,
	}

	actor := Actor{ID: "pat-1", Role: models.RolePatient}
	_, _, err := svc.Reschedule(context.Background(), actor, "appt-1", date, "10:00 AM")
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("error = %v, want ErrSlotConflict", err)
	}
}

func TestTransitionCompleteMarksRecord(t *testing.T) {
	repo, _, _, svc := testFixture()

	apptID := "appt-42"
	repo.appts[apptID] = &models.Appointment{
		BaseModel: models.BaseModel{ID: apptID}, PatientID: "pat-1", DoctorID: "doc-1", DoctorName: "Dr. Lee",
		AppointmentDate: futureDate(0), AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}
	repo.records["rec-42"] = &models.PatientRecord{
		BaseModel: models.BaseModel{ID: "rec-42"}, PatientID: "pat-1", AppointmentID: &apptID,
	}

	actor := Actor{ID: "doc-1", Role: models.RoleDoctor}
	appt, warnings, err := svc.Transition(context.Background(), actor, apptID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if appt.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want Completed", appt.Status)
	}

	rec := repo.records["rec-42"]
	if !rec.SuccessfulVisit {
		t.Fatal("record not marked as a successful visit")
	}
	if rec.DoctorNotes == "" {
		t.Fatal("completion note not set")
	}
}

func TestTransitionCompleteWithoutRecordWarns(t *testing.T) {
	repo, _, _, svc := testFixture()

	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: futureDate(0), AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}

	actor := Actor{ID: "doc-1", Role: models.RoleDoctor}
	appt, warnings, err := svc.Transition(context.Background(), actor, "appt-1", models.StatusCompleted)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if appt.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want Completed", appt.Status)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want the missing-record warning", warnings)
	}
}

func TestTransitionNotificationFailureIsWarning(t *testing.T) {
	repo, _, notifier, svc := testFixture()
	notifier.err = errors.New("smtp down")

	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: futureDate(1), AppointmentTime: "09:00 AM", Status: models.StatusPending,
	}

	actor := Actor{ID: "adm-1", Role: models.RoleAdmin}
	appt, warnings, err := svc.Transition(context.Background(), actor, "appt-1", models.StatusApproved)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if appt.Status != models.StatusApproved {
		t.Fatalf("status = %s, want Approved despite notification failure", appt.Status)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want the notification warning", warnings)
	}
	if repo.appts["appt-1"].Status != models.StatusApproved {
		t.Fatal("stored status reverted after notification failure")
	}
}

func TestTransitionPatientOwnershipRequired(t *testing.T) {
	repo, _, _, svc := testFixture()

	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: futureDate(1), AppointmentTime: "09:00 AM", Status: models.StatusApproved,
	}

	actor := Actor{ID: "pat-2", Role: models.RolePatient}
	_, _, err := svc.Transition(context.Background(), actor, "appt-1", models.StatusCancelled)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if repo.appts["appt-1"].Status != models.StatusApproved {
		t.Fatal("stored status changed by a forbidden transition")
	}
}

func TestTransitionReinstateIsStaffOnly(t *testing.T) {
	repo, _, notifier, svc := testFixture()

	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1", DoctorName: "Dr. Lee",
		AppointmentDate: futureDate(1), AppointmentTime: "09:00 AM", Status: models.StatusCancelled,
	}

	for _, actor := range []Actor{{ID: "doc-1", Role: models.RoleDoctor}, {ID: "pat-1", Role: models.RolePatient}} {
		if _, _, err := svc.Transition(context.Background(), actor, "appt-1", models.StatusReinstated); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s reinstate error = %v, want ErrForbidden", actor.Role, err)
		}
	}

	appt, _, err := svc.Transition(context.Background(), Actor{ID: "adm-1", Role: models.RoleAdmin}, "appt-1", models.StatusReinstated)
	if err != nil {
		t.Fatalf("admin reinstate: %v", err)
	}
	if appt.Status != models.StatusApproved {
		t.Fatalf("status = %s, want Approved", appt.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Status != "Reinstated" {
		t.Fatalf("notifications = %+v, want one Reinstated notice", notifier.sent)
	}
}

func TestTransitionUnknownEdgeLeavesStatus(t *testing.T) {
	repo, _, _, svc := testFixture()

	repo.appts["appt-1"] = &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: futureDate(1), AppointmentTime: "09:00 AM", Status: models.StatusDeclined,
	}

	_, _, err := svc.Transition(context.Background(), Actor{ID: "adm-1", Role: models.RoleAdmin}, "appt-1", models.StatusApproved)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
	if repo.appts["appt-1"].Status != models.StatusDeclined {
		t.Fatal("stored status changed by an invalid transition")
	}
}

func TestDeleteAppointmentUnlinksRecord(t *testing.T) {
	repo, _, _, svc := testFixture()

	apptID := "appt-1"
	repo.appts[apptID] = &models.Appointment{
		BaseModel: models.BaseModel{ID: apptID}, PatientID: "pat-1", DoctorID: "doc-1",
		AppointmentDate: futureDate(1), AppointmentTime: "09:00 AM", Status: models.StatusPending,
	}
	repo.records["rec-1"] = &models.PatientRecord{
		BaseModel: models.BaseModel{ID: "rec-1"}, PatientID: "pat-1", AppointmentID: &apptID,
	}

	if err := svc.DeleteAppointment(context.Background(), Actor{ID: "pat-1", Role: models.RolePatient}, apptID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("patient delete error = %v, want ErrForbidden", err)
	}

	if err := svc.DeleteAppointment(context.Background(), Actor{ID: "adm-1", Role: models.RoleAdmin}, apptID); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}

	if _, ok := repo.appts[apptID]; ok {
		t.Fatal("appointment still present after delete")
	}
	if rec := repo.records["rec-1"]; rec.AppointmentID != nil {
		t.Fatal("record still linked to the deleted appointment")
	}
}
