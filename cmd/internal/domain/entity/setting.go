package entity

const SettingPropertyName = "property_name"

type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedBy *int
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"`
}
