package controller

import (
	"classpulse_backend/internal/service"
	"classpulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttentionController struct {
	Attention *service.AttentionService
}

func NewAttentionController(attention *service.AttentionService) *AttentionController {
	return &AttentionController{Attention: attention}
}

// @Summary 当前需要关注的学生聚合
// @Tags 关注状态
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/attention [get]
func (c *AttentionController) GetState(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.Attention.State(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// @Summary 需要关注的学生明细（每行一个学生）
// @Tags 关注状态
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/attention/students [get]
func (c *AttentionController) ListEntries(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	entries, err := c.Attention.Entries(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
