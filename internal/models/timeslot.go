package models

// TimeslotStatus represents the booking state of a timeslot
type TimeslotStatus string

const (
	TimeslotAvailable   TimeslotStatus = "available"
	TimeslotBooked      TimeslotStatus = "booked"
	TimeslotUnavailable TimeslotStatus = "unavailable"
)

// Timeslot is a bookable interval on a doctor's calendar. Date is YYYY-MM-DD,
// StartTime and EndTime are HH:MM.
type Timeslot struct {
	BaseModel
	DoctorID  string         `gorm:"size:36;not null;index" json:"doctor_id"`
	Date      string         `gorm:"size:10;not null;index" json:"date"`
	StartTime string         `gorm:"size:5;not null" json:"start_time"`
	EndTime   string         `gorm:"size:5;not null" json:"end_time"`
	Status    TimeslotStatus `gorm:"size:20;not null;default:'available';index" json:"status"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}
