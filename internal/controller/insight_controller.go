package controller

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/service"
	"classpulse_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type InsightController struct {
	InsightService   *service.InsightService
	DetectionService *service.DetectionService
	Attention        *service.AttentionService
}

func NewInsightController(
	insightService *service.InsightService,
	detectionService *service.DetectionService,
	attention *service.AttentionService,
) *InsightController {
	return &InsightController{
		InsightService:   insightService,
		DetectionService: detectionService,
		Attention:        attention,
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// respondLifecycleError maps the service errors onto the response taxonomy:
// not-found and illegal-transition surface to the caller, the rest is a 500.
func respondLifecycleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInsightNotFound), errors.Is(err, util.ErrTodoNotFound), errors.Is(err, util.ErrAssignmentNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrIllegalTransition), errors.Is(err, util.ErrEmptyChecklist),
		errors.Is(err, util.ErrTodoNotCompletable), errors.Is(err, util.ErrTodoNotReopenable):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary 为当前教师生成新洞察
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/generate [post]
func (c *InsightController) Generate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	insights, err := c.DetectionService.GenerateForTeacher(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)

	util.Success(ctx, gin.H{"created": len(insights), "insights": insights})
}

// @Summary 洞察列表（按状态/学生/作业过滤，按优先级排序）
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Param status query string false "状态过滤"
// @Param studentId query int false "学生ID"
// @Param assignmentId query int false "作业ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights [get]
func (c *InsightController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := repository.InsightFilter{
		Status: model.InsightStatus(ctx.Query("status")),
	}
	if v, err := strconv.Atoi(ctx.Query("assignmentId")); err == nil && v > 0 {
		filter.AssignmentID = uint(v)
	}
	studentID := 0
	if v, err := strconv.Atoi(ctx.Query("studentId")); err == nil && v > 0 {
		studentID = v
	}

	insights, err := c.InsightService.List(user.UserID, filter, uint(studentID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, insights)
}

// @Summary 标记洞察为已查看
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Param id path int true "洞察ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/{id}/review [post]
func (c *InsightController) Review(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	insight, err := c.InsightService.Review(id, user.UserID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, insight)
}

type dismissRequest struct {
	Note string `json:"note"`
}

// @Summary 忽略洞察
// @Tags 教学洞察
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "洞察ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/{id}/dismiss [post]
func (c *InsightController) Dismiss(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dismissRequest
	ctx.ShouldBindJSON(&req)

	insight, err := c.InsightService.Dismiss(id, user.UserID, req.Note)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, insight)
}

// @Summary 重新激活洞察
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Param id path int true "洞察ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/{id}/reactivate [post]
func (c *InsightController) Reactivate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	insight, err := c.InsightService.Reactivate(id, user.UserID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, insight)
}

type checklistRequest struct {
	Actions []service.ChecklistAction `json:"actions" binding:"required"`
}

// @Summary 提交洞察处理清单
// @Tags 教学洞察
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "洞察ID"
// @Param body body checklistRequest true "清单动作"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/{id}/checklist [post]
func (c *InsightController) SubmitChecklist(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req checklistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	insight, outcome, err := c.InsightService.SubmitChecklist(id, user.UserID, req.Actions)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, gin.H{"insight": insight, "outcome": outcome})
}

type feedbackRequest struct {
	Helpful *bool  `json:"helpful" binding:"required"`
	Note    string `json:"note"`
}

// @Summary 洞察反馈（有用/无用）
// @Tags 教学洞察
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "洞察ID"
// @Param body body feedbackRequest true "反馈内容"
// @Success 200 {object} util.Response
// @Router /api/teacher/insights/{id}/feedback [post]
func (c *InsightController) Feedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	insight, err := c.InsightService.Feedback(id, user.UserID, *req.Helpful, req.Note)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, insight)
}

// @Summary 标记某学生的某作业为已批阅（级联解决相关洞察）
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Param assignmentId path int true "作业ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{assignmentId}/students/{studentId}/review [post]
func (c *InsightController) MarkAssignmentReviewed(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := pathID(ctx, "assignmentId")
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}

	sa, err := c.InsightService.MarkAssignmentReviewed(user.UserID, studentID, assignmentID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, sa)
}

// @Summary 重新打开批阅（遗留待办转为历史记录）
// @Tags 教学洞察
// @Security BearerAuth
// @Produce json
// @Param assignmentId path int true "作业ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{assignmentId}/students/{studentId}/review [delete]
func (c *InsightController) ReopenAssignmentReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := pathID(ctx, "assignmentId")
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}

	sa, err := c.InsightService.ReopenAssignmentReview(user.UserID, studentID, assignmentID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	util.Success(ctx, sa)
}
