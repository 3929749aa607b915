package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline role/permission matrix.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		// Admin manages everything except acting as a doctor or patient.
		{RoleAdmin, WildcardResource, WildcardAction, EffectAllow},
		{RoleAdmin, ResourcePrescription, ActionCreate, EffectDeny},
		{RoleAdmin, ResourceAppointment, ActionCreate, EffectDeny},
		{RoleAdmin, ResourceDoctorProfile, ActionCreate, EffectDeny},

		{RoleDoctor, ResourceSession, ActionDelete, EffectAllow},
		{RoleDoctor, ResourceDoctorProfile, ActionCreate, EffectAllow},
		{RoleDoctor, ResourceDoctorProfile, ActionRead, EffectAllow},
		{RoleDoctor, ResourceDoctorProfile, ActionUpdate, EffectAllow},
		{RoleDoctor, ResourceAppointment, ActionList, EffectAllow},
		{RoleDoctor, ResourceAppointment, ActionRead, EffectAllow},
		{RoleDoctor, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleDoctor, ResourcePrescription, ActionCreate, EffectAllow},
		{RoleDoctor, ResourcePrescription, ActionList, EffectAllow},
		{RoleDoctor, ResourcePrescription, ActionRead, EffectAllow},
		{RoleDoctor, ResourcePrescription, ActionUpdate, EffectAllow},

		{RolePatient, ResourceSession, ActionDelete, EffectAllow},
		{RolePatient, ResourceAppointment, ActionCreate, EffectAllow},
		{RolePatient, ResourceAppointment, ActionList, EffectAllow},
		{RolePatient, ResourceAppointment, ActionRead, EffectAllow},
		{RolePatient, ResourceAppointment, ActionUpdate, EffectAllow},
		{RolePatient, ResourcePrescription, ActionList, EffectAllow},
		{RolePatient, ResourcePrescription, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies installs DefaultPolicies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()
	policies := DefaultPolicies()

	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action, "effect", p.Effect)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}
