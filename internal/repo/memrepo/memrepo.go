// Package memrepo is an in-memory repo.Store for tests.
package memrepo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/internal/repo"
)

type db struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]repo.User
	doctors       map[primitive.ObjectID]repo.Doctor
	appointments  map[primitive.ObjectID]repo.Appointment
	prescriptions map[primitive.ObjectID]repo.Prescription
	clock         func() time.Time
}

// New returns a Store whose repositories share one in-memory database.
func New() *repo.Store {
	d := &db{
		users:         map[primitive.ObjectID]repo.User{},
		doctors:       map[primitive.ObjectID]repo.Doctor{},
		appointments:  map[primitive.ObjectID]repo.Appointment{},
		prescriptions: map[primitive.ObjectID]repo.Prescription{},
		clock:         monotonicClock(),
	}
	return &repo.Store{
		Users:         users{d},
		Doctors:       doctors{d},
		Appointments:  appointments{d},
		Prescriptions: prescriptions{d},
	}
}

// monotonicClock hands out strictly increasing timestamps so that
// newest-first ordering is deterministic in tests.
func monotonicClock() func() time.Time {
	var last time.Time
	return func() time.Time {
		now := time.Now().UTC()
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
		last = now
		return now
	}
}

// ----------------------------------------------------------------------------
// users
// ----------------------------------------------------------------------------

type users struct{ *db }

func (r users) Create(_ context.Context, u *repo.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := r.clock()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = *u
	return nil
}

func (r users) FindByID(_ context.Context, id primitive.ObjectID) (*repo.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r users) FindByEmail(_ context.Context, email string) (*repo.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r users) ListByRole(_ context.Context, role repo.Role) ([]repo.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repo.User, 0)
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r users) SetBlocked(_ context.Context, id primitive.ObjectID, blocked bool) (*repo.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != repo.RolePatient {
		return nil, repo.ErrNotFound
	}
	u.IsBlocked = blocked
	u.UpdatedAt = r.clock()
	r.users[id] = u
	return &u, nil
}

func (r users) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.clock()
	r.users[id] = u
	return nil
}

func (r users) CountByRole(_ context.Context, role repo.Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ----------------------------------------------------------------------------
// doctors
// ----------------------------------------------------------------------------

type doctors struct{ *db }

func (r doctors) Create(_ context.Context, d *repo.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.doctors {
		if existing.Email == d.Email {
			return repo.ErrDuplicate
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = repo.StatusPending
	}
	now := r.clock()
	d.CreatedAt, d.UpdatedAt = now, now
	r.doctors[d.ID] = cloneDoctor(*d)
	return nil
}

func (r doctors) FindByID(_ context.Context, id primitive.ObjectID) (*repo.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := cloneDoctor(d)
	return &out, nil
}

func (r doctors) FindByEmail(_ context.Context, email string) (*repo.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.doctors {
		if d.Email == email {
			out := cloneDoctor(d)
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r doctors) List(_ context.Context, status *repo.VerificationStatus) ([]repo.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repo.Doctor, 0)
	for _, d := range r.doctors {
		if status == nil || d.VerificationStatus == *status {
			out = append(out, cloneDoctor(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r doctors) Transition(_ context.Context, id primitive.ObjectID, from, to repo.VerificationStatus, reason *string) (*repo.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if d.VerificationStatus != from {
		return nil, repo.ErrConflict
	}
	d.VerificationStatus = to
	d.RejectionReason = nil
	if reason != nil {
		v := *reason
		d.RejectionReason = &v
	}
	d.UpdatedAt = r.clock()
	r.doctors[id] = d
	out := cloneDoctor(d)
	return &out, nil
}

func (r doctors) SaveProfile(_ context.Context, id primitive.ObjectID, p *repo.DoctorProfile, reset ...repo.VerificationStatus) (*repo.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	now := r.clock()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	cp := cloneProfile(*p)
	d.Profile = &cp
	if slices.Contains(reset, d.VerificationStatus) {
		d.VerificationStatus = repo.StatusPending
		d.RejectionReason = nil
	}
	d.UpdatedAt = now
	r.doctors[id] = d
	out := cloneDoctor(d)
	return &out, nil
}

func (r doctors) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return repo.ErrNotFound
	}
	d.PasswordHash = hash
	d.UpdatedAt = r.clock()
	r.doctors[id] = d
	return nil
}

func (r doctors) Stats(_ context.Context) (repo.DoctorStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[repo.VerificationStatus]int64{}
	for _, d := range r.doctors {
		counts[d.VerificationStatus]++
	}
	return repo.StatsFromCounts(counts), nil
}

func cloneDoctor(d repo.Doctor) repo.Doctor {
	if d.RejectionReason != nil {
		v := *d.RejectionReason
		d.RejectionReason = &v
	}
	if d.Profile != nil {
		p := cloneProfile(*d.Profile)
		d.Profile = &p
	}
	return d
}

func cloneProfile(p repo.DoctorProfile) repo.DoctorProfile {
	p.Qualifications = append([]string(nil), p.Qualifications...)
	return p
}

// ----------------------------------------------------------------------------
// appointments
// ----------------------------------------------------------------------------

type appointments struct{ *db }

func (r appointments) Create(_ context.Context, a *repo.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Status == "" {
		a.Status = repo.AppointmentPending
	}
	now := r.clock()
	a.CreatedAt, a.UpdatedAt = now, now
	r.appointments[a.ID] = *a
	return nil
}

func (r appointments) FindByID(_ context.Context, id primitive.ObjectID) (*repo.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (r appointments) List(_ context.Context, f repo.AppointmentFilter) ([]repo.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repo.Appointment, 0)
	for _, a := range r.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (r appointments) Update(_ context.Context, a *repo.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return repo.ErrNotFound
	}
	a.UpdatedAt = r.clock()
	r.appointments[a.ID] = *a
	return nil
}

func (r appointments) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r appointments) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.appointments)), nil
}

// ----------------------------------------------------------------------------
// prescriptions
// ----------------------------------------------------------------------------

type prescriptions struct{ *db }

func (r prescriptions) Create(_ context.Context, p *repo.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.prescriptions {
		if existing.AppointmentID == p.AppointmentID {
			return repo.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := r.clock()
	p.CreatedAt, p.UpdatedAt = now, now
	r.prescriptions[p.ID] = clonePrescription(*p)
	return nil
}

func (r prescriptions) FindByID(_ context.Context, id primitive.ObjectID) (*repo.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := clonePrescription(p)
	return &out, nil
}

func (r prescriptions) List(_ context.Context, f repo.PrescriptionFilter) ([]repo.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repo.Prescription, 0)
	for _, p := range r.prescriptions {
		if f.PatientID != nil && p.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && p.DoctorID != *f.DoctorID {
			continue
		}
		out = append(out, clonePrescription(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r prescriptions) Update(_ context.Context, p *repo.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[p.ID]; !ok {
		return repo.ErrNotFound
	}
	p.UpdatedAt = r.clock()
	r.prescriptions[p.ID] = clonePrescription(*p)
	return nil
}

func (r prescriptions) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.prescriptions, id)
	return nil
}

func clonePrescription(p repo.Prescription) repo.Prescription {
	p.Medicines = append([]repo.Medicine(nil), p.Medicines...)
	return p
}
