package repository

import (
	"villabook/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultSettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *DefaultSettingRepository {
	return &DefaultSettingRepository{db: db}
}

func (s *DefaultSettingRepository) FindAll() ([]*entity.Setting, error) {
	var settings []*entity.Setting
	err := s.db.Order("key asc").Find(&settings).Error
	return settings, err
}

func (s *DefaultSettingRepository) FindByKey(key string) (*entity.Setting, error) {
	var setting entity.Setting
	res := s.db.Where("key = ?", key).Limit(1).Find(&setting)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &setting, nil
}

func (s *DefaultSettingRepository) Save(setting *entity.Setting) error {
	return s.db.Save(setting).Error
}

// SeedDefaults inserts the given settings, leaving existing keys untouched.
func (s *DefaultSettingRepository) SeedDefaults(defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}
	rows := make([]entity.Setting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, entity.Setting{Key: k, Value: v})
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
