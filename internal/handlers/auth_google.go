package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Store           store.Users
	Lifecycle       *lifecycle.Lifecycle
	JWTSecret       string
	Expires         int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func shortCookie(name, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   maxAge,
	}
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)
	c.Cookie(shortCookie("oauth_state", st, 10*60))
	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}
	c.Cookie(shortCookie("oauth_state", "", -1))

	ctx := c.UserContext()
	tok, err := h.oauthCfg().Exchange(ctx, code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to exchange code")
	}

	resp, err := h.oauthCfg().Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to fetch userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to decode userinfo")
	}
	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" || !gu.VerifiedEmail {
		return c.Status(fiber.StatusBadRequest).SendString("Google account has no verified email")
	}

	u, created, err := h.findOrCreate(c, email, strings.TrimSpace(gu.Name))
	if err != nil {
		log.Println("Google sign-in:", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign in")
	}
	if !u.IsActive {
		return c.Redirect(h.FrontendBaseURL+"/auth/login?err="+url.QueryEscape("Account is not active"), http.StatusTemporaryRedirect)
	}

	var sess *lifecycle.SessionState
	if created {
		sess, err = h.Lifecycle.OnUserRegistered(ctx, u.ID)
	} else {
		sess, err = h.Lifecycle.OnUserLoggedIn(ctx, u.ID)
	}
	if err != nil {
		log.Println("Google sign-in session:", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign in")
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(sess.User.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign jwt")
	}
	setSession(c, jwtToken, h.Expires)

	next := sess.Landing
	switch {
	case sess.User.Role == models.RoleSubscriber:
		next = "/register/role"
	case sess.TermsRequired:
		next = "/terms-and-conditions/"
	}
	return c.Redirect(strings.TrimRight(h.FrontendBaseURL, "/")+next, http.StatusTemporaryRedirect)
}

// findOrCreate returns the user for email, creating one that still has to
// pick a marketplace role.
func (h *GoogleOAuthHandler) findOrCreate(c *fiber.Ctx, email, name string) (*models.User, bool, error) {
	ctx := c.UserContext()
	u, err := h.Store.FindUserByLogin(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	// password is random; the account signs in through Google only
	hashed, err := utils.HashPassword(randomState(24))
	if err != nil {
		return nil, false, err
	}
	u = &models.User{
		Name:     name,
		Login:    strings.SplitN(email, "@", 2)[0] + "-" + randomState(4),
		Email:    email,
		Password: hashed,
		Role:     models.RoleSubscriber,
		IsActive: true,
	}
	if err := h.Store.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
