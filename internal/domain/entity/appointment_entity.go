package entity

import "time"

// AppointmentStatus is an informal enumeration; nothing enforces it on write.
type AppointmentStatus = string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentCompleted AppointmentStatus = "Completed"
)

// Appointment mirrors a document of the "appointments" collection.
// Date and Time are kept as the display strings the front-end writes.
type Appointment struct {
	ID        string            `firestore:"-" json:"id,omitempty"`
	UserID    string            `firestore:"userId" json:"user_id"`
	Doctor    string            `firestore:"doctor" json:"doctor"`
	Specialty string            `firestore:"specialty" json:"specialty"`
	Date      string            `firestore:"date" json:"date"`
	Time      string            `firestore:"time" json:"time"`
	Type      string            `firestore:"type" json:"type"`
	Reason    string            `firestore:"reason" json:"reason"`
	Phone     string            `firestore:"phone" json:"phone"`
	Status    AppointmentStatus `firestore:"status" json:"status"`
	Notes     string            `firestore:"notes" json:"notes"`
	CreatedAt time.Time         `firestore:"createdAt" json:"created_at"`
	UpdatedAt time.Time         `firestore:"updatedAt" json:"updated_at"`
}
