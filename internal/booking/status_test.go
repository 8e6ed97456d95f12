package booking

import (
	"errors"
	"testing"

	"medlink-server/internal/models"
)

func TestValidateTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		name      string
		current   models.AppointmentStatus
		requested models.AppointmentStatus
		role      models.Role
		want      models.AppointmentStatus
	}{
		{"admin approves pending", models.StatusPending, models.StatusApproved, models.RoleAdmin, models.StatusApproved},
		{"doctor approves pending", models.StatusPending, models.StatusApproved, models.RoleDoctor, models.StatusApproved},
		{"doctor declines pending", models.StatusPending, models.StatusDeclined, models.RoleDoctor, models.StatusDeclined},
		{"doctor completes approved", models.StatusApproved, models.StatusCompleted, models.RoleDoctor, models.StatusCompleted},
		{"patient cancels pending", models.StatusPending, models.StatusCancelled, models.RolePatient, models.StatusCancelled},
		{"patient cancels approved", models.StatusApproved, models.StatusCancelled, models.RolePatient, models.StatusCancelled},
		{"superadmin reinstates cancelled", models.StatusCancelled, models.StatusReinstated, models.RoleSuperAdmin, models.StatusApproved},
		{"admin reinstates via approved label", models.StatusCancelled, models.StatusApproved, models.RoleAdmin, models.StatusApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateTransition(tc.current, tc.requested, tc.role)
			if err != nil {
				t.Fatalf("ValidateTransition(%s, %s, %s): %v", tc.current, tc.requested, tc.role, err)
			}
			if got != tc.want {
				t.Fatalf("target = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidateTransitionRejectsUnknownEdges(t *testing.T) {
	cases := []struct {
		name      string
		current   models.AppointmentStatus
		requested models.AppointmentStatus
	}{
		{"declined cannot be approved", models.StatusDeclined, models.StatusApproved},
		{"completed cannot be cancelled", models.StatusCompleted, models.StatusCancelled},
		{"pending cannot complete directly", models.StatusPending, models.StatusCompleted},
		{"approved self loop", models.StatusApproved, models.StatusApproved},
		{"cancelled self loop", models.StatusCancelled, models.StatusCancelled},
		{"declined cannot be reinstated", models.StatusDeclined, models.StatusReinstated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateTransition(tc.current, tc.requested, models.RoleSuperAdmin)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("ValidateTransition(%s, %s) error = %v, want ErrInvalidTransition", tc.current, tc.requested, err)
			}
		})
	}
}

func TestValidateTransitionRoleRestrictions(t *testing.T) {
	cases := []struct {
		name      string
		current   models.AppointmentStatus
		requested models.AppointmentStatus
		role      models.Role
	}{
		{"patient cannot approve", models.StatusPending, models.StatusApproved, models.RolePatient},
		{"patient cannot decline", models.StatusPending, models.StatusDeclined, models.RolePatient},
		{"patient cannot complete", models.StatusApproved, models.StatusCompleted, models.RolePatient},
		{"doctor cannot cancel", models.StatusApproved, models.StatusCancelled, models.RoleDoctor},
		{"doctor cannot reinstate", models.StatusCancelled, models.StatusReinstated, models.RoleDoctor},
		{"patient cannot reinstate", models.StatusCancelled, models.StatusReinstated, models.RolePatient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateTransition(tc.current, tc.requested, tc.role)
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("ValidateTransition(%s, %s, %s) error = %v, want ErrForbidden", tc.current, tc.requested, tc.role, err)
			}
		})
	}
}

func TestNotificationLabel(t *testing.T) {
	if got := notificationLabel(models.StatusCancelled, models.StatusApproved); got != "Reinstated" {
		t.Fatalf("label for cancelled->approved = %q, want Reinstated", got)
	}
	if got := notificationLabel(models.StatusPending, models.StatusApproved); got != "Approved" {
		t.Fatalf("label for pending->approved = %q, want Approved", got)
	}
}

func TestIsActive(t *testing.T) {
	active := []models.AppointmentStatus{models.StatusPending, models.StatusApproved}
	for _, s := range active {
		if !IsActive(s) {
			t.Errorf("IsActive(%s) = false, want true", s)
		}
	}
	inactive := []models.AppointmentStatus{models.StatusDeclined, models.StatusCancelled, models.StatusCompleted}
	for _, s := range inactive {
		if IsActive(s) {
			t.Errorf("IsActive(%s) = true, want false", s)
		}
	}
}
