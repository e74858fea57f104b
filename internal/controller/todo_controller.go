package controller

import (
	"classpulse_backend/internal/service"
	"classpulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TodoController struct {
	TodoService *service.TodoService
	Attention   *service.AttentionService
}

func NewTodoController(todoService *service.TodoService, attention *service.AttentionService) *TodoController {
	return &TodoController{TodoService: todoService, Attention: attention}
}

// @Summary 教师待办列表（可按班级/学科/作业/学生分组）
// @Tags 教师待办
// @Security BearerAuth
// @Produce json
// @Param groupBy query string false "class|subject|assignment|student"
// @Success 200 {object} util.Response
// @Router /api/teacher/todos [get]
func (c *TodoController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if groupBy := ctx.Query("groupBy"); groupBy != "" {
		groups, err := c.TodoService.Grouped(user.UserID, groupBy)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, groups)
		return
	}

	todos, err := c.TodoService.ListByTeacher(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, todos)
}

// @Summary 完成待办
// @Tags 教师待办
// @Security BearerAuth
// @Produce json
// @Param id path int true "待办ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/todos/{id}/complete [post]
func (c *TodoController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	todo, err := c.TodoService.Complete(id, user.UserID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, todo)
}

// @Summary 重新打开已完成的待办
// @Tags 教师待办
// @Security BearerAuth
// @Produce json
// @Param id path int true "待办ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/todos/{id}/reopen [post]
func (c *TodoController) Reopen(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	todo, err := c.TodoService.Reopen(id, user.UserID)
	if err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, todo)
}

// @Summary 删除待办（可选择让来源洞察重新浮现）
// @Tags 教师待办
// @Security BearerAuth
// @Produce json
// @Param id path int true "待办ID"
// @Param reactivate query bool false "是否重新激活来源洞察"
// @Success 200 {object} util.Response
// @Router /api/teacher/todos/{id} [delete]
func (c *TodoController) Delete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	reactivate := ctx.Query("reactivate") == "true"
	if err := c.TodoService.Delete(id, user.UserID, reactivate); err != nil {
		respondLifecycleError(ctx, err)
		return
	}
	if reactivate {
		c.Attention.Invalidate(ctx.Request.Context(), user.UserID)
	}
	util.Success(ctx, nil)
}
