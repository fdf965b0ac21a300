package controllers

import (
	"net/http"
	"strconv"

	"protolab/app"
	"protolab/models"

	"github.com/gin-gonic/gin"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// ListUsers supports ?q=&page=&size= (admin only).
func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "listing users failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (uc *UserController) GetUser(c *gin.Context) {
	u, err := uc.Repo.FindUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// SetRole promotes or demotes a user (admin only).
func (uc *UserController) SetRole(c *gin.Context) {
	var in struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Role != models.RoleMember && in.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown role"})
		return
	}
	if err := uc.Repo.SetUserRole(c.Request.Context(), c.Param("id"), in.Role); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "updating role failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DeleteUser removes the account and revokes its sessions.
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == app.UserID(c) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}
	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "deleting user failed"})
		return
	}
	_ = uc.Sessions.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
