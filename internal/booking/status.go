package booking

import (
	"fmt"

	"medlink-server/internal/models"
)

// Actor is the identity and role performing a booking or status change.
// It is threaded explicitly into every call; nothing here reads ambient
// session state.
type Actor struct {
	ID   string
	Role models.Role
}

// ActiveStatuses are the statuses that occupy a slot for admission
// control. Declined and Cancelled rows free their slot.
var ActiveStatuses = []models.AppointmentStatus{
	models.StatusPending,
	models.StatusApproved,
}

// IsActive reports whether a status occupies its slot.
func IsActive(s models.AppointmentStatus) bool {
	return s == models.StatusPending || s == models.StatusApproved
}

type transition struct {
	from, to models.AppointmentStatus
}

// transitionActors is the full authorization policy for status changes:
// every legal edge mapped to the roles allowed to drive it. RolePatient
// entries additionally require the actor to own the appointment, which
// the service checks against the stored row.
var transitionActors = map[transition][]models.Role{
	{models.StatusPending, models.StatusApproved}:   {models.RoleAdmin, models.RoleSuperAdmin, models.RoleDoctor},
	{models.StatusPending, models.StatusDeclined}:   {models.RoleAdmin, models.RoleSuperAdmin, models.RoleDoctor},
	{models.StatusApproved, models.StatusCompleted}: {models.RoleAdmin, models.RoleSuperAdmin, models.RoleDoctor},
	{models.StatusApproved, models.StatusCancelled}: {models.RoleAdmin, models.RoleSuperAdmin, models.RolePatient},
	{models.StatusPending, models.StatusCancelled}:  {models.RoleAdmin, models.RoleSuperAdmin, models.RolePatient},
	{models.StatusCancelled, models.StatusApproved}: {models.RoleAdmin, models.RoleSuperAdmin},
}

// normalizeStatus maps the "Reinstated" request label onto its stored
// target status.
func normalizeStatus(s models.AppointmentStatus) models.AppointmentStatus {
	if s == models.StatusReinstated {
		return models.StatusApproved
	}
	return s
}

// ValidateTransition checks that the edge current -> requested exists and
// that the role may drive it. The "Reinstated" label is accepted for the
// Cancelled -> Approved edge. Patient ownership is not checked here.
func ValidateTransition(current, requested models.AppointmentStatus, role models.Role) (models.AppointmentStatus, error) {
	target := normalizeStatus(requested)

	allowed, ok := transitionActors[transition{current, target}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
	}

	for _, r := range allowed {
		if r == role {
			return target, nil
		}
	}
	return "", fmt.Errorf("%w: role %s may not move %s -> %s", ErrForbidden, role, current, requested)
}

// notificationLabel is the status wording used in patient notifications.
// Moving a cancelled appointment back to approved reads as "Reinstated".
func notificationLabel(from, to models.AppointmentStatus) string {
	if from == models.StatusCancelled && to == models.StatusApproved {
		return string(models.StatusReinstated)
	}
	return string(to)
}

// notifiableTransition reports whether a committed edge triggers a
// patient notification.
func notifiableTransition(to models.AppointmentStatus) bool {
	switch to {
	case models.StatusApproved, models.StatusDeclined, models.StatusCancelled, models.StatusCompleted:
		return true
	}
	return false
}
