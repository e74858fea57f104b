package controller

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/service"
	"classpulse_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	Settings *service.SettingsService
}

func NewSettingsController(settings *service.SettingsService) *SettingsController {
	return &SettingsController{Settings: settings}
}

// @Summary 获取阈值设置（已合并默认值）
// @Tags 阈值设置
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/settings/thresholds [get]
func (c *SettingsController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	settings, err := c.Settings.Resolve(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// @Summary 更新阈值设置
// @Tags 阈值设置
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.TeacherThresholdSettings true "阈值"
// @Success 200 {object} util.Response
// @Router /api/teacher/settings/thresholds [put]
func (c *SettingsController) Update(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var settings model.TeacherThresholdSettings
	if err := ctx.ShouldBindJSON(&settings); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	merged, err := c.Settings.Update(user.UserID, settings)
	if err != nil {
		if errors.Is(err, util.ErrInvalidThresholds) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, merged)
}
