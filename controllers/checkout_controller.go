package controllers

import (
	"errors"
	"net/http"

	"protolab/app"
	"protolab/checkout"
	"protolab/db"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct{ *Srv }

func NewCheckoutController(s *Srv) *CheckoutController { return &CheckoutController{Srv: s} }

// flowError maps the flow engine's sentinels onto HTTP responses. Validation
// errors come back 422 with the flow unchanged so the operator can retry;
// store failures stay generic.
func (cc *CheckoutController) flowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrFlowNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "flow not found or expired"})
	case errors.Is(err, checkout.ErrBadState):
		c.JSON(http.StatusConflict, app.H{"error": "step not allowed in current state"})
	case errors.Is(err, checkout.ErrNotAdmin):
		c.JSON(http.StatusForbidden, app.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrUnknownProject),
		errors.Is(err, checkout.ErrUnknownPerson),
		errors.Is(err, checkout.ErrPinLength),
		errors.Is(err, checkout.ErrPinMismatch),
		errors.Is(err, checkout.ErrWrongPin),
		errors.Is(err, checkout.ErrQuantityInvalid),
		errors.Is(err, checkout.ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrItemNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": "operation failed"})
	}
}

func (cc *CheckoutController) Start(c *gin.Context) {
	var in struct {
		Mode   string `json:"mode" binding:"required"`
		ItemID string `json:"itemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Mode == checkout.ModeAdjustment && !app.IsAdmin(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}

	f, err := cc.Checkout.Start(c.Request.Context(), in.Mode, in.ItemID, app.UserID(c))
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (cc *CheckoutController) Get(c *gin.Context) {
	f, err := cc.Checkout.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (cc *CheckoutController) Abort(c *gin.Context) {
	f, err := cc.Checkout.Abort(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// People lists who can be picked at the person step.
func (cc *CheckoutController) People(c *gin.Context) {
	users, err := cc.Checkout.People(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.flowError(c, err)
		return
	}
	type person struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		HasPin bool   `json:"hasPin"`
	}
	out := make([]person, 0, len(users))
	for _, u := range users {
		out = append(out, person{ID: u.ID, Name: u.DisplayName, HasPin: u.HasPin()})
	}
	c.JSON(http.StatusOK, app.H{"people": out})
}

func (cc *CheckoutController) SelectProject(c *gin.Context) {
	var in struct {
		Project string `json:"project" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	f, err := cc.Checkout.SelectProject(c.Request.Context(), c.Param("id"), in.Project)
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (cc *CheckoutController) SelectPerson(c *gin.Context) {
	var in struct {
		PersonID string `json:"personId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	f, err := cc.Checkout.SelectPerson(c.Request.Context(), c.Param("id"), in.PersonID)
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// SubmitPin verifies or creates the person's PIN. For adjustments a
// successful PIN commits immediately and the movement is returned.
func (cc *CheckoutController) SubmitPin(c *gin.Context) {
	var in struct {
		Pin     string `json:"pin" binding:"required"`
		Confirm string `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	f, mv, err := cc.Checkout.SubmitPin(c.Request.Context(), c.Param("id"), in.Pin, in.Confirm)
	if err != nil {
		cc.flowError(c, err)
		return
	}
	if mv != nil {
		app.CountMovement(mv.Kind)
		c.JSON(http.StatusOK, app.H{"flow": f, "movement": mv})
		return
	}
	c.JSON(http.StatusOK, f)
}

// EnterQuantity records the withdrawal amount or adjustment target. The
// quantity arrives as text, exactly as typed.
func (cc *CheckoutController) EnterQuantity(c *gin.Context) {
	var in struct {
		Quantity string `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	f, err := cc.Checkout.EnterQuantity(c.Request.Context(), c.Param("id"), in.Quantity)
	if err != nil {
		cc.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Confirm commits a withdrawal.
func (cc *CheckoutController) Confirm(c *gin.Context) {
	f, mv, err := cc.Checkout.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.flowError(c, err)
		return
	}
	app.CountMovement(mv.Kind)
	c.JSON(http.StatusOK, app.H{"flow": f, "movement": mv})
}
