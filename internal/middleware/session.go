package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "session"
	sessionKey        = "session"
	sessionManagerKey = "session_manager"
	sessionTTL        = 24 * time.Hour
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type SessionData struct {
	CSRFToken string    `json:"csrf_token"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager stores session data in an HMAC-signed cookie.
type SessionManager struct {
	secret []byte
	secure bool
}

func NewSessionManager(secret string, secure bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		secure: secure,
	}
}

// Middleware loads the session from its cookie, or starts a new one with a
// fresh CSRF token.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionManagerKey, m)

		session := m.Decode(cookieValue(c))
		if session == nil {
			session = &SessionData{CSRFToken: uuid.NewString()}
			c.Set(sessionKey, session)
			if err := SaveSession(c); err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		} else {
			c.Set(sessionKey, session)
		}

		c.Next()
	}
}

// Encode signs session data into a cookie value (signature.data).
func (m *SessionManager) Encode(session *SessionData) (string, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	encodedData := base64.URLEncoding.EncodeToString(data)
	return m.createSignature(encodedData) + "." + encodedData, nil
}

// Decode verifies and decodes a cookie value. It returns nil for a missing,
// tampered or expired session.
func (m *SessionManager) Decode(value string) *SessionData {
	if value == "" {
		return nil
	}

	// Split cookie value (signature.data)
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil
	}

	signature, data := parts[0], parts[1]
	if !m.verifySignature(data, signature) {
		return nil
	}

	decodedData, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil
	}

	var session SessionData
	if err := json.Unmarshal(decodedData, &session); err != nil {
		return nil
	}

	if time.Now().After(session.ExpiresAt) || session.CSRFToken == "" {
		return nil
	}

	return &session
}

// createSignature creates HMAC signature for data
func (m *SessionManager) createSignature(data string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies HMAC signature
func (m *SessionManager) verifySignature(data, signature string) bool {
	expectedSignature := m.createSignature(data)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// GetSession retrieves session data from context
func GetSession(c *gin.Context) *SessionData {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil
	}

	if sessionData, ok := session.(*SessionData); ok {
		return sessionData
	}

	return nil
}

// SaveSession writes the current session back to its cookie, extending its
// expiry. It must run before the response body is written.
func SaveSession(c *gin.Context) error {
	session := GetSession(c)
	value, exists := c.Get(sessionManagerKey)
	if session == nil || !exists {
		return nil
	}
	m := value.(*SessionManager)

	session.ExpiresAt = time.Now().Add(sessionTTL)
	encoded, err := m.Encode(session)
	if err != nil {
		return err
	}

	dropSessionCookieHeader(c)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, encoded, int(sessionTTL.Seconds()), "/", "", m.secure, true)
	return nil
}

// AddFlash queues a message for the next page and saves the session.
func AddFlash(c *gin.Context, category, message string) error {
	session := GetSession(c)
	if session == nil {
		return nil
	}
	session.Flashes = append(session.Flashes, Flash{Category: category, Message: message})
	return SaveSession(c)
}

// PopFlashes returns and clears the queued messages.
func PopFlashes(c *gin.Context) []Flash {
	session := GetSession(c)
	if session == nil || len(session.Flashes) == 0 {
		return nil
	}

	flashes := session.Flashes
	session.Flashes = nil
	SaveSession(c)
	return flashes
}

// CSRFToken returns the token forms must echo back.
func CSRFToken(c *gin.Context) string {
	if session := GetSession(c); session != nil {
		return session.CSRFToken
	}
	return ""
}

func cookieValue(c *gin.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie
}

// dropSessionCookieHeader keeps a single session Set-Cookie per response.
func dropSessionCookieHeader(c *gin.Context) {
	header := c.Writer.Header()
	cookies := header.Values("Set-Cookie")
	if len(cookies) == 0 {
		return
	}

	header.Del("Set-Cookie")
	for _, cookie := range cookies {
		if !strings.HasPrefix(cookie, sessionCookieName+"=") {
			header.Add("Set-Cookie", cookie)
		}
	}
}
