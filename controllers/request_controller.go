package controllers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"protolab/app"
	"protolab/db"
	"protolab/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

var requestStatuses = map[string]bool{
	models.RequestSubmitted:  true,
	models.RequestApproved:   true,
	models.RequestInProgress: true,
	models.RequestDone:       true,
	models.RequestRejected:   true,
}

// Create accepts a multipart form: service, project, machine, material,
// notes and an optional attachment (model file, drawing).
func (rc *RequestController) Create(c *gin.Context) {
	service := c.PostForm("service")
	project := c.PostForm("project")
	machine := c.PostForm("machine")
	material := c.PostForm("material")

	cat := rc.App.Catalog
	if !cat.HasService(service) {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown service"})
		return
	}
	if !cat.HasProject(project) {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown project"})
		return
	}
	if machine != "" && !cat.HasMachine(machine) {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown machine"})
		return
	}
	if material != "" {
		if !cat.HasMaterial(material) {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown material"})
			return
		}
		if machine != "" {
			allowed := false
			for _, m := range cat.MaterialsFor(machine) {
				if m == material {
					allowed = true
					break
				}
			}
			if !allowed {
				c.JSON(http.StatusBadRequest, app.H{"error": "machine does not accept this material"})
				return
			}
		}
	}

	req := &models.FabRequest{
		ID:          uuid.NewString(),
		RequesterID: app.UserID(c),
		Service:     service,
		Project:     project,
		Machine:     machine,
		Material:    material,
		Notes:       strings.TrimSpace(c.PostForm("notes")),
	}

	if fh, err := c.FormFile("attachment"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "reading attachment failed"})
			return
		}
		defer f.Close()

		key := fmt.Sprintf("requests/%s/%s%s", req.RequesterID, req.ID, filepath.Ext(fh.Filename))
		if err := rc.App.Disk.Put(c.Request.Context(), key, f, fh.Header.Get("Content-Type")); err != nil {
			rc.Log.Error("storing attachment failed", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, app.H{"error": "storing attachment failed"})
			return
		}
		req.AttachmentKey = key
	}

	if err := rc.Repo.CreateRequest(c.Request.Context(), req); err != nil {
		if req.AttachmentKey != "" {
			_ = rc.App.Disk.Delete(c.Request.Context(), req.AttachmentKey)
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": "creating request failed"})
		return
	}
	c.JSON(http.StatusCreated, req)
}

// List returns the caller's requests; admins see everyone's. ?status=
func (rc *RequestController) List(c *gin.Context) {
	requester := app.UserID(c)
	if app.IsAdmin(c) {
		requester = c.Query("requester") // may be empty for all
	}
	reqs, err := rc.Repo.ListRequests(c.Request.Context(), requester, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "listing requests failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": reqs})
}

func (rc *RequestController) Get(c *gin.Context) {
	req, err := rc.Repo.FindRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "request not found"})
		return
	}
	if req.RequesterID != app.UserID(c) && !app.IsAdmin(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, req)
}

// UpdateTracking lets an admin set status, cost and delivery date.
func (rc *RequestController) UpdateTracking(c *gin.Context) {
	var in struct {
		Status       *string `json:"status"`
		Cost         *string `json:"cost"`
		DeliveryDate *string `json:"deliveryDate"` // RFC 3339 date
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	if in.Status != nil && !requestStatuses[*in.Status] {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown status"})
		return
	}

	var cost *float64
	if in.Cost != nil {
		v, err := strconv.ParseFloat(*in.Cost, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, app.H{"error": "cost must be a non-negative number"})
			return
		}
		cost = &v
	}

	var delivery *time.Time
	if in.DeliveryDate != nil {
		t, err := time.Parse("2006-01-02", *in.DeliveryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "deliveryDate must be YYYY-MM-DD"})
			return
		}
		delivery = &t
	}

	req, err := rc.Repo.UpdateRequestTracking(c.Request.Context(), c.Param("id"), in.Status, cost, delivery)
	if err == db.ErrRequestNotFound {
		c.JSON(http.StatusNotFound, app.H{"error": "request not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "updating request failed"})
		return
	}
	c.JSON(http.StatusOK, req)
}
