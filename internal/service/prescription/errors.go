package prescription

import "errors"

var (
	ErrNotFound             = errors.New("prescription not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotAppointmentDoctor = errors.New("only the appointment's doctor can prescribe for it")
	ErrNotPrescriber        = errors.New("only the prescribing doctor can change this prescription")
	ErrForbidden            = errors.New("not a participant of this prescription")
	ErrAlreadyExists        = errors.New("a prescription already exists for this appointment")
	ErrMedicinesRequired    = errors.New("at least one medicine with a name is required")
)
