package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/services/session"
	u "github.com/mirakyc/onboarding/utils"
)

type sessionView struct {
	ID       string           `json:"id"`
	State    session.State    `json:"state"`
	Progress session.Progress `json:"progress"`
}

func (ctrl *Controller) sessionError(ctx *gin.Context, err error) {
	var actionErr *session.ActionError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		u.APIResponse(ctx, http.StatusNotFound, "error", "Session not found or expired", nil)
	case errors.As(err, &actionErr):
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid action", actionErr.Error())
	default:
		respondError(ctx, err, "Failed to access session")
	}
}

// CreateSession starts a new onboarding session
func (ctrl *Controller) CreateSession(ctx *gin.Context) {
	id, state, err := ctrl.sessions.Create(ctx.Request.Context())
	if err != nil {
		ctrl.sessionError(ctx, err)
		return
	}
	u.APIResponse(ctx, http.StatusCreated, "success", "Session created", sessionView{
		ID:       id,
		State:    state,
		Progress: state.Progress(),
	})
}

// GetSession returns the session state and capture progress
func (ctrl *Controller) GetSession(ctx *gin.Context) {
	id := ctx.Param("id")
	state, err := ctrl.sessions.Get(ctx.Request.Context(), id)
	if err != nil {
		ctrl.sessionError(ctx, err)
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", sessionView{
		ID:       id,
		State:    state,
		Progress: state.Progress(),
	})
}

// DispatchAction applies one action to the session
func (ctrl *Controller) DispatchAction(ctx *gin.Context) {
	var action session.Action
	if err := ctx.ShouldBindJSON(&action); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", err.Error())
		return
	}

	id := ctx.Param("id")
	state, err := ctrl.sessions.Dispatch(ctx.Request.Context(), id, action)
	if err != nil {
		ctrl.sessionError(ctx, err)
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", sessionView{
		ID:       id,
		State:    state,
		Progress: state.Progress(),
	})
}

// DeleteSession discards a session
func (ctrl *Controller) DeleteSession(ctx *gin.Context) {
	if err := ctrl.sessions.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctrl.sessionError(ctx, err)
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "Session deleted", nil)
}
