package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"protolab/app"
	"protolab/checkout"
	"protolab/db"
	"protolab/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Srv bundles what every controller needs.
type Srv struct {
	Repo     *db.Repo
	Sessions *session.Store
	Checkout *checkout.Service
	App      *app.App
	Log      *zap.Logger
}

func NewSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	return &Srv{
		Repo:     repo,
		Sessions: a.Sessions(),
		Checkout: checkout.NewService(repo, a.Flows(), a.Catalog, a.Log),
		App:      a,
		Log:      a.Log,
	}
}

func (s *Srv) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.App.Config.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearSessionCookie(w http.ResponseWriter) {
	secure := strings.HasPrefix(s.App.Config.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// issueSession creates the Redis session, sets the cookie and records the
// login snapshot.
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, ip, ua string) error {
	if err := s.Repo.TouchUserLogin(ctx, userID, ip, ua); err != nil {
		s.Log.Warn("touch login failed", zap.String("user", userID), zap.Error(err))
	}
	id := uuid.NewString()
	if err := s.Sessions.Create(ctx, id, userID); err != nil {
		return err
	}
	s.setSessionCookie(w, id, s.App.Config.SessionTTL)
	return nil
}
