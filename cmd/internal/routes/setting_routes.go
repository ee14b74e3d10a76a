package routes

import (
	"net/http"

	"villabook/cmd/internal/service"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type SettingService interface {
	GetSettings() ([]*service.SettingResponse, apierror.ErrorResponse)
	UpdateSetting(key string, req *service.UpdateSettingRequest, subId string) (*service.SettingResponse, apierror.ErrorResponse)
}

type DefaultSettingRoute struct {
	SettingService SettingService
}

func NewSettingDefault(settingService SettingService) *DefaultSettingRoute {
	return &DefaultSettingRoute{SettingService: settingService}
}

func (s *DefaultSettingRoute) GetSettings(c echo.Context) error {
	settings, apierr := s.SettingService.GetSettings()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"settings": settings}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultSettingRoute) UpdateSetting(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("key"))
	}

	var req service.UpdateSettingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	setting, apierr := s.SettingService.UpdateSetting(key, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, setting)
}
