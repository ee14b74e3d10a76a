package service

import (
	"villabook/cmd/internal/access"
	"villabook/cmd/internal/domain/entity"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type SettingRepository interface {
	FindAll() ([]*entity.Setting, error)
	FindByKey(key string) (*entity.Setting, error)
	Save(setting *entity.Setting) error
}

type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=500"`
}

type SettingResponse struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedBy *int   `json:"updated_by"`
	UpdatedAt string `json:"updated_at"`
}

type DefaultSettingService struct {
	SettingRepo SettingRepository
	UserRepo    UserRepository
	Policy      access.Policy
	Validate    *validator.Validate
}

func NewSettingService(settingRepo SettingRepository, userRepo UserRepository, policy access.Policy, validate *validator.Validate) *DefaultSettingService {
	return &DefaultSettingService{SettingRepo: settingRepo, UserRepo: userRepo, Policy: policy, Validate: validate}
}

func (s *DefaultSettingService) GetSettings() ([]*SettingResponse, apierror.ErrorResponse) {
	settings, err := s.SettingRepo.FindAll()
	if err != nil {
		log.Errorf("failed to fetch settings: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*SettingResponse, len(settings))
	for i, setting := range settings {
		resp[i] = toSettingResponse(setting)
	}
	return resp, nil
}

// UpdateSetting creates or overwrites a setting. Super admins only.
func (s *DefaultSettingService) UpdateSetting(key string, req *UpdateSettingRequest, subId string) (*SettingResponse, apierror.ErrorResponse) {
	caller, err := s.UserRepo.FindBySub(subId)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", subId, err)
		return nil, apierror.InternalServerError
	}
	if caller == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	if !s.Policy.CanManageSettings(caller) {
		return nil, apierror.ForbiddenError
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	setting := &entity.Setting{Key: key, Value: req.Value, UpdatedBy: &caller.ID}
	if err := s.SettingRepo.Save(setting); err != nil {
		log.Errorf("failed to save setting %s: %v", key, err)
		return nil, apierror.InternalServerError
	}
	return toSettingResponse(setting), nil
}

func toSettingResponse(setting *entity.Setting) *SettingResponse {
	return &SettingResponse{
		Key:       setting.Key,
		Value:     setting.Value,
		UpdatedBy: setting.UpdatedBy,
		UpdatedAt: utils.FormatEpoch(setting.UpdatedAt),
	}
}
