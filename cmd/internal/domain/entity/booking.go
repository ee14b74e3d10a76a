package entity

const TypeBooking = "booking"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
)

// Booking is a reservation of the property over whole calendar days.
// StartsAt and EndsAt are epoch milliseconds of the first and last instant
// of the range in the service's reference time zone.
type Booking struct {
	ID          int    `gorm:"primaryKey"`
	StartsAt    int64  `gorm:"not null;index"`
	EndsAt      int64  `gorm:"not null;index"`
	StartDay    int    `gorm:"not null"`
	EndDay      int    `gorm:"not null"`
	Duration    int    `gorm:"not null"`
	Gap         int    `gorm:"not null"`
	Type        string `gorm:"not null;default:booking"`
	Status      string `gorm:"not null;index"`
	AddedBy     int    `gorm:"not null;index"` // References: users(id)
	ValidatedBy *int   // References: users(id)
	CreatedAt   int64  `gorm:"autoCreateTime:milli"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli"`

	// Relations
	Owner     User  `gorm:"foreignKey:AddedBy;references:ID"`
	Validator *User `gorm:"foreignKey:ValidatedBy;references:ID"`
}

func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusApproved
}
