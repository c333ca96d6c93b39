package middleware

import (
	"github.com/gin-gonic/gin"

	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/session"
)

const ctxSession = "session"

// SessionMiddleware loads the signed-in user's session before the handler
// and stores it again when the handler changed it.
type SessionMiddleware struct {
	sessions session.Service
}

// NewSessionMiddleware creates a new SessionMiddleware.
func NewSessionMiddleware(sessions session.Service) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Load returns a gin middleware that attaches the session to the context.
// It must run after Authenticate.
func (m *SessionMiddleware) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			c.Next()
			return
		}

		sess, err := m.sessions.Get(c.Request.Context(), user.ID, user.Email)
		if err != nil {
			HandleError(c, domainerrors.NewBackendError("load session", err))
			return
		}
		before := *sess
		c.Set(ctxSession, sess)

		c.Next()

		if cleared, _ := c.Get(ctxSessionCleared); cleared == true || *sess == before {
			return
		}
		if err := m.sessions.Save(c.Request.Context(), sess); err != nil {
			GetRequestLogger(c).Warn().Err(err).Str("user_id", sess.UserID).Msg("failed to save session")
		}
	}
}

const ctxSessionCleared = "session_cleared"

// MarkSessionCleared stops Load from writing the session back, for
// handlers that deleted it.
func MarkSessionCleared(c *gin.Context) {
	c.Set(ctxSessionCleared, true)
}

// GetSession retrieves the session from the gin context.
func GetSession(c *gin.Context) *models.Session {
	if sess, exists := c.Get(ctxSession); exists {
		return sess.(*models.Session)
	}
	return nil
}
