package app

import (
	"context"
	"time"

	"protolab/catalog"
	"protolab/checkout"
	"protolab/config"
	"protolab/db"
	"protolab/session"
	"protolab/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Aliases so handlers don't import gin directly everywhere.
type Ctx = gin.Context
type H = gin.H

// App aggregates the service's dependencies.
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Log     *zap.Logger
	Disk    storage.Disk
	Catalog *catalog.Catalog
	Config  config.Config

	sessions *session.Store
	flows    checkout.FlowStore
}

func (a *App) Sessions() *session.Store  { return a.sessions }
func (a *App) Flows() checkout.FlowStore { return a.flows }

func MustNew() *App {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	disk, err := storage.Connect(cfg)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal("catalog", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	useCORS(r, cfg.WebOrigin)
	r.Use(Metrics())

	return &App{
		Router:   r,
		DB:       conn,
		RDB:      rdb,
		Log:      log,
		Disk:     disk,
		Catalog:  cat,
		Config:   cfg,
		sessions: session.NewStore(rdb, cfg.SessionTTL),
		flows:    checkout.NewRedisStore(rdb, cfg.FlowTTL),
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	_ = a.Log.Sync()
}
