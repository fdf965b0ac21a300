package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"protolab/app"

	"github.com/gin-gonic/gin"
)

type InviteController struct{ *Srv }

func NewInviteController(s *Srv) *InviteController { return &InviteController{Srv: s} }

// CreateInvite mints a one-time registration token for an email address.
func (ic *InviteController) CreateInvite(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required,email"`
		TTLHours int    `json:"ttlHours"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.TTLHours <= 0 || in.TTLHours > 24*14 {
		in.TTLHours = 72
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "token generation failed"})
		return
	}
	token := hex.EncodeToString(buf)

	v, _ := c.Get("username")
	createdBy, _ := v.(string)

	inv, err := ic.Repo.CreateInvite(c.Request.Context(), in.Email, token,
		time.Now().Add(time.Duration(in.TTLHours)*time.Hour), createdBy, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "creating invite failed"})
		return
	}

	c.JSON(http.StatusCreated, app.H{"invite": inv, "token": token})
}
