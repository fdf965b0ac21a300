package controllers

import (
	"net/http"

	"protolab/app"
	"protolab/db"
	"protolab/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// Register creates an account from an invite token.
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		InviteToken string `json:"inviteToken" binding:"required"`
		Username    string `json:"username" binding:"required"`
		DisplayName string `json:"displayName"`
		Password    string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	inv, err := ac.Repo.ConsumeInvite(c.Request.Context(), in.InviteToken)
	if err != nil {
		if err == db.ErrInviteInvalid {
			c.JSON(http.StatusForbidden, app.H{"error": "invite invalid or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": "registration failed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "registration failed"})
		return
	}

	display := in.DisplayName
	if display == "" {
		display = in.Username
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		DisplayName:  display,
		Role:         models.RoleMember,
		PasswordHash: string(hash),
	}
	// The bootstrap invite admits the first administrator.
	if inv.Bootstrap {
		u.Role = models.RoleAdmin
	}
	if err := ac.Repo.CreateUser(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusConflict, app.H{"error": "username taken"})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "session failed"})
		return
	}
	ac.Log.Info("user registered", zap.String("user", u.ID), zap.String("username", u.Username))
	c.JSON(http.StatusCreated, u)
}

func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u, err := ac.Repo.FindUserByUsername(c.Request.Context(), in.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "session failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sessions.Delete(c.Request.Context(), ck.Value)
	}
	ac.clearSessionCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AuthController) WhoAmI(c *gin.Context) {
	u, err := ac.Repo.FindUserByID(c.Request.Context(), app.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "hasPin": u.HasPin()})
}
