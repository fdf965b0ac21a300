package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"protolab/app"
	"protolab/db"
	"protolab/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StockController struct{ *Srv }

func NewStockController(s *Srv) *StockController { return &StockController{Srv: s} }

// ListItems returns a category's items. An unknown category is created on
// the spot and comes back empty.
func (sc *StockController) ListItems(c *gin.Context) {
	items, err := sc.Repo.ListStock(c.Request.Context(), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "listing stock failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// CreateItem accepts a multipart form: name, location, quantity, tags and an
// optional image file stored on the configured disk. Admin only.
func (sc *StockController) CreateItem(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "name is required"})
		return
	}
	qty, err := strconv.ParseFloat(c.DefaultPostForm("quantity", "0"), 64)
	if err != nil || qty < 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "quantity must be a non-negative number"})
		return
	}

	it := &models.StockItem{
		ID:       uuid.NewString(),
		Category: c.Param("category"),
		Name:     name,
		Location: strings.TrimSpace(c.PostForm("location")),
		Quantity: qty,
		Tags:     strings.TrimSpace(c.PostForm("tags")),
	}

	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "reading image failed"})
			return
		}
		defer f.Close()

		key := fmt.Sprintf("stock/%s/%s%s", it.Category, it.ID, filepath.Ext(fh.Filename))
		if err := sc.App.Disk.Put(c.Request.Context(), key, f, fh.Header.Get("Content-Type")); err != nil {
			sc.Log.Error("storing item image failed", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, app.H{"error": "storing image failed"})
			return
		}
		it.ImageKey = key
	}

	if err := sc.Repo.CreateStockItem(c.Request.Context(), it); err != nil {
		// Roll back the orphaned object; the row never existed.
		if it.ImageKey != "" {
			_ = sc.App.Disk.Delete(c.Request.Context(), it.ImageKey)
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": "creating item failed"})
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (sc *StockController) GetItem(c *gin.Context) {
	it, err := sc.Repo.FindStockItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (sc *StockController) UpdateItem(c *gin.Context) {
	var in struct {
		Name     string `json:"name" binding:"required"`
		Location string `json:"location"`
		Tags     string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	err := sc.Repo.UpdateStockItem(c.Request.Context(), c.Param("id"), in.Name, in.Location, in.Tags)
	if err == db.ErrItemNotFound {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "updating item failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DeleteItem removes the row and its backing image. Ledger rows referencing
// the item are kept.
func (sc *StockController) DeleteItem(c *gin.Context) {
	imageKey, err := sc.Repo.DeleteStockItem(c.Request.Context(), c.Param("id"))
	if err == db.ErrItemNotFound {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "deleting item failed"})
		return
	}
	if imageKey != "" {
		if err := sc.App.Disk.Delete(c.Request.Context(), imageKey); err != nil {
			sc.Log.Warn("deleting item image failed", zap.String("key", imageKey), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// ItemImage streams the item's image from the storage disk.
func (sc *StockController) ItemImage(c *gin.Context) {
	it, err := sc.Repo.FindStockItem(c.Request.Context(), c.Param("id"))
	if err != nil || it.ImageKey == "" {
		c.JSON(http.StatusNotFound, app.H{"error": "no image"})
		return
	}
	rc, err := sc.App.Disk.Open(c.Request.Context(), it.ImageKey)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "no image"})
		return
	}
	defer rc.Close()
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

// ListMovements returns ledger rows, newest first. ?item=&kind=&limit=
func (sc *StockController) ListMovements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ms, err := sc.Repo.ListMovements(c.Request.Context(), c.Query("item"), c.Query("kind"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "listing movements failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"movements": ms})
}
