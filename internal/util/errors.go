package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInsightNotFound    = errors.New("insight not found")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrIllegalTransition  = errors.New("illegal insight status transition")
	ErrInvalidThresholds  = errors.New("invalid threshold settings")
	ErrEmptyChecklist     = errors.New("checklist has no actions")
	ErrTodoNotReopenable  = errors.New("only done todos can be reopened")
	ErrTodoNotCompletable = errors.New("only open todos can be completed")
)
