package entity

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID            int    `gorm:"primaryKey"`
	SubUUID       string `gorm:"uniqueIndex;not null"`
	Username      string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	EmailVerified bool   `gorm:"not null"`
	Role          string `gorm:"not null;default:user"`
	IsValidated   bool   `gorm:"not null"`
	Color         string
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}
