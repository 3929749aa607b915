package constants

const (
	AppName      = "healthplus"
	EnvPrefix    = "HEALTHPLUS"
	ConfigName   = "config"
	ConfigFormat = "yaml"
)

// Collection names in the document store.
const (
	CollectionUsers         = "users"
	CollectionDoctors       = "doctors"
	CollectionAppointments  = "appointments"
	CollectionPrescriptions = "prescriptions"
)

// Event subjects.
const (
	SubjectDoctorVerification = "healthplus.doctor.verification"
	SubjectAppointmentStatus  = "healthplus.appointment.status"
)
