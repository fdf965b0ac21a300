package app

import (
	"net/http"

	"protolab/db"
	"protolab/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

// AuthRequired resolves the session cookie, confirms the user still exists
// and puts userID/username/role into the request context.
func AuthRequired(sessions *session.Store, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		sess, err := sessions.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		u, err := repo.FindUserByID(c.Request.Context(), sess.UserID)
		if err != nil {
			_ = sessions.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("displayName", u.DisplayName)
		c.Set("isAdmin", u.IsAdmin())
		c.Next()
	}
}

// AdminOnly requires AuthRequired to have run first.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get("isAdmin"); !ok || v != true {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id from the context.
func UserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}

func IsAdmin(c *gin.Context) bool {
	v, _ := c.Get("isAdmin")
	b, _ := v.(bool)
	return b
}
