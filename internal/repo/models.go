package repo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	IsBlocked    bool               `bson:"isBlocked" json:"isBlocked"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender       string             `bson:"gender,omitempty" json:"gender,omitempty"`
	DOB          *time.Time         `bson:"dob,omitempty" json:"dob,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Doctor is the verification aggregate. The profile is embedded so a status
// change and a profile resubmission are each a single document write.
type Doctor struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName           string             `bson:"fullName" json:"fullName"`
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"passwordHash" json:"-"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	VerificationStatus VerificationStatus `bson:"verificationStatus" json:"verificationStatus"`
	RejectionReason    *string            `bson:"rejectionReason,omitempty" json:"rejectionReason"`
	Profile            *DoctorProfile     `bson:"profile,omitempty" json:"profile"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type DoctorProfile struct {
	Specialization string    `bson:"specialization" json:"specialization"`
	Experience     int       `bson:"experience" json:"experience"`
	Qualifications []string  `bson:"qualifications" json:"qualifications"`
	LicenseNumber  string    `bson:"licenseNumber" json:"licenseNumber"`
	Documents      Documents `bson:"documents" json:"documents"`
	Clinic         Clinic    `bson:"clinic" json:"clinic"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Documents struct {
	ProfilePhoto   string `bson:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
	License        string `bson:"license" json:"license"`
	Certificate    string `bson:"certificate" json:"certificate"`
	GovtID         string `bson:"govtId,omitempty" json:"govtId,omitempty"`
	ExperienceCert string `bson:"experienceCert,omitempty" json:"experienceCert,omitempty"`
}

type Clinic struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

type DoctorStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Verified int64 `json:"verified"`
	Rejected int64 `json:"rejected"`
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentApproved  AppointmentStatus = "approved"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentApproved, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID primitive.ObjectID `bson:"patientId" json:"patientId"`
	DoctorID  primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	Date      string             `bson:"date" json:"date"` // YYYY-MM-DD
	Time      string             `bson:"time" json:"time"` // HH:MM
	Status    AppointmentStatus  `bson:"status" json:"status"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Medicine struct {
	Name      string `bson:"name" json:"name"`
	Dose      string `bson:"dose" json:"dose"`
	Frequency string `bson:"frequency" json:"frequency"`
	Duration  string `bson:"duration" json:"duration"`
}

type Prescription struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID     primitive.ObjectID `bson:"patientId" json:"patientId"`
	DoctorID      primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	AppointmentID primitive.ObjectID `bson:"appointmentId" json:"appointmentId"`
	Medicines     []Medicine         `bson:"medicines" json:"medicines"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	FileURL       string             `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
