package routes

import (
	"time"

	"protolab/app"
	"protolab/controllers"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, a *app.App) {
	s := controllers.NewSrv(a)
	authCtl := controllers.NewAuthController(s)
	inviteCtl := controllers.NewInviteController(s)
	userCtl := controllers.NewUserController(s)
	stockCtl := controllers.NewStockController(s)
	checkoutCtl := controllers.NewCheckoutController(s)
	requestCtl := controllers.NewRequestController(s)
	catalogCtl := controllers.NewCatalogController(s)

	authMW := app.AuthRequired(a.Sessions(), s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })
	r.GET("/metrics", app.MetricsHandler())

	// ------------------------------
	// Auth (public + protected)
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.POST("/logout", authCtl.Logout)
		authed.GET("/whoami", authCtl.WhoAmI)
	}

	// ------------------------------
	// Invites (admin only)
	// ------------------------------
	admin := r.Group("/admin", authMW, adminMW)
	{
		admin.POST("/invites", inviteCtl.CreateInvite)
	}

	// ------------------------------
	// Users (admin only)
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", userCtl.ListUsers) // ?q=&page=&size=
		users.GET("/:id", userCtl.GetUser)
		users.PATCH("/:id/role", userCtl.SetRole)
		users.DELETE("/:id", userCtl.DeleteUser)
	}

	// ------------------------------
	// Catalog
	// ------------------------------
	r.GET("/api/catalog", authMW, catalogCtl.Get)

	// ------------------------------
	// Stock + ledger
	// ------------------------------
	stockAdmin := r.Group("/api/stock/:category/items", authMW, adminMW)
	{
		stockAdmin.POST("", stockCtl.CreateItem) // multipart, optional image
	}
	stock := r.Group("/api/stock/:category/items", authMW, seenMW)
	{
		stock.GET("", stockCtl.ListItems)
	}
	items := r.Group("/api/items", authMW, seenMW)
	{
		items.GET("/:id", stockCtl.GetItem)
		items.GET("/:id/image", stockCtl.ItemImage)
	}
	itemsAdmin := r.Group("/api/items", authMW, adminMW)
	{
		itemsAdmin.PUT("/:id", stockCtl.UpdateItem)
		itemsAdmin.DELETE("/:id", stockCtl.DeleteItem)
	}
	r.GET("/api/movements", authMW, stockCtl.ListMovements) // ?item=&kind=&limit=

	// ------------------------------
	// Check-out / adjustment flows
	// ------------------------------
	co := r.Group("/api/checkout", authMW, seenMW)
	{
		co.POST("", checkoutCtl.Start)
		co.GET("/:id", checkoutCtl.Get)
		co.DELETE("/:id", checkoutCtl.Abort)
		co.GET("/:id/people", checkoutCtl.People)
		co.POST("/:id/project", checkoutCtl.SelectProject)
		co.POST("/:id/person", checkoutCtl.SelectPerson)
		co.POST("/:id/pin", checkoutCtl.SubmitPin)
		co.POST("/:id/quantity", checkoutCtl.EnterQuantity)
		co.POST("/:id/confirm", checkoutCtl.Confirm)
	}

	// ------------------------------
	// Fabrication requests
	// ------------------------------
	reqs := r.Group("/api/requests", authMW, seenMW)
	{
		reqs.POST("", requestCtl.Create) // multipart, optional attachment
		reqs.GET("", requestCtl.List)
		reqs.GET("/:id", requestCtl.Get)
	}
	reqsAdmin := r.Group("/api/requests", authMW, adminMW)
	{
		reqsAdmin.PATCH("/:id", requestCtl.UpdateTracking)
	}
}
