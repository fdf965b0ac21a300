package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CatalogController struct{ *Srv }

func NewCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// Get returns the injected catalogs: projects, services, machines,
// materials.
func (cc *CatalogController) Get(c *gin.Context) {
	c.JSON(http.StatusOK, cc.App.Catalog)
}
