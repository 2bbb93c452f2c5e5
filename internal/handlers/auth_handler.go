package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"papertrade/internal/config"
	apperrors "papertrade/internal/errors"
	"papertrade/internal/middleware"
	"papertrade/internal/services"
)

const oauthStateCookie = "pt_oauth_state"

// googleUserInfo is the profile returned by Google's userinfo endpoint.
type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// AuthHandler handles Google OAuth sign-in and session management.
type AuthHandler struct {
	userService         services.UserServicer
	subscriptionService services.SubscriptionServicer
	oauthConfig         *oauth2.Config
	userInfoURL         string // overridable for tests
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, subscriptionService services.SubscriptionServicer) *AuthHandler {
	cfg := config.Get()
	return &AuthHandler{
		userService:         userService,
		subscriptionService: subscriptionService,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// Login starts the OAuth flow: generates a CSRF state token, stores it in a
// short-lived cookie, and redirects to Google's consent screen.
// GET /auth/google/login
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	secure := config.Get().Env == "production"
	c.SetCookie(oauthStateCookie, state, 600, "/", "", secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state))
}

// Callback completes the OAuth flow: verifies the state cookie, exchanges the
// authorization code, fetches the Google profile, upserts the user, and issues
// the session cookie before redirecting back to the frontend.
// GET /auth/google/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie == "" || c.Query("state") != stateCookie {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrOAuthFailed, "Invalid OAuth state"))
		return
	}
	// State is single-use
	secure := config.Get().Env == "production"
	c.SetCookie(oauthStateCookie, "", -1, "/", "", secure, true)

	code := c.Query("code")
	if code == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrOAuthFailed, "Missing authorization code"))
		return
	}

	token, err := h.oauthConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrOAuthFailed, err))
		return
	}

	info, err := h.fetchUserInfo(c, token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.FindOrCreateFromGoogle(info.ID, info.Email, info.Name, info.Picture)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sessionToken, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	maxAge := int(config.Get().JWTExpirationDur.Seconds())
	c.SetCookie(middleware.SessionCookieName, sessionToken, maxAge, "/", "", secure, true)
	c.Redirect(http.StatusTemporaryRedirect, config.Get().FrontendURL)
}

// fetchUserInfo retrieves the signed-in user's Google profile.
func (h *AuthHandler) fetchUserInfo(c *gin.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauthConfig.Client(c.Request.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrOAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrOAuthFailed, fmt.Errorf("userinfo returned status %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrOAuthFailed, err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrOAuthFailed, "Incomplete Google profile")
	}
	return &info, nil
}

// Logout clears the session cookie.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	secure := config.Get().Env == "production"
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CurrentUser returns the authenticated user's profile along with their
// subscription status.
// GET /auth/user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.subscriptionService.Status(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"subscription": status,
	})
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
