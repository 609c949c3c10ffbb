package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/realtime"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/moderation"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/payments"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

// Deps is everything the routes need, composed once in main.
type Deps struct {
	Store     store.Store
	Engine    *policy.Engine
	Lifecycle *lifecycle.Lifecycle
	Verifier  *verification.Reader
	Scanner   *moderation.Scanner
	Webhooks  *payments.WebhookService
	Hub       *realtime.Hub

	JWTSecret     string
	JWTExpiresMin int
	PlatformFee   int64
	UploadDir     string
	PublicBaseURL string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Register(app *fiber.App, d Deps) {
	authH := &AuthHandler{Store: d.Store, Lifecycle: d.Lifecycle, JWTSecret: d.JWTSecret, Expires: d.JWTExpiresMin}
	googleH := &GoogleOAuthHandler{
		Store:           d.Store,
		Lifecycle:       d.Lifecycle,
		JWTSecret:       d.JWTSecret,
		Expires:         d.JWTExpiresMin,
		GoogleClientID:  d.GoogleClientID,
		GoogleSecret:    d.GoogleSecret,
		GoogleRedirect:  d.GoogleRedirect,
		FrontendBaseURL: d.FrontendBaseURL,
	}
	termsH := &TermsHandler{Store: d.Store, Lifecycle: d.Lifecycle}
	docH := &DocumentHandler{Store: d.Store, Verifier: d.Verifier, UploadDir: d.UploadDir, PublicBaseURL: d.PublicBaseURL}
	taskH := &TaskHandler{Store: d.Store, Engine: d.Engine, Lifecycle: d.Lifecycle}
	bidH := &BidHandler{Guard: policy.NewBidGuard(d.Engine, d.Store), Lifecycle: d.Lifecycle, PlatformFee: d.PlatformFee}
	payH := &PaymentHandler{Store: d.Store, Webhooks: d.Webhooks, Lifecycle: d.Lifecycle}
	msgH := &MessageHandler{Store: d.Store, Engine: d.Engine, Lifecycle: d.Lifecycle}
	modH := &ModerationHandler{Scanner: d.Scanner}
	permH := &PermissionHandler{Engine: d.Engine, Lifecycle: d.Lifecycle, Verifier: d.Verifier}
	adminH := &AdminHandler{Store: d.Store, Verifier: d.Verifier}

	session := []fiber.Handler{
		middleware.JWTFromCookie(d.JWTSecret),
		middleware.AttachJWTLocals(),
		middleware.LoadActor(d.Store),
	}
	withSession := func(extra ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, session...), extra...)
	}
	terms := middleware.TermsGate(d.Engine)

	api := app.Group("/api")

	// public
	api.Get("/auth/roles", authH.Roles)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Post("/payments/webhook", payH.HandleCallback)
	api.Get("/moderation/dictionary", modH.Dictionary)
	api.Post("/moderation/scan", modH.Scan)

	// session, terms not yet required
	api.Post("/auth/role", withSession(middleware.RequireRoles(string(models.RoleSubscriber)), authH.ChooseRole)...)
	termsGrp := api.Group("/terms", withSession()...)
	termsGrp.Get("/", termsH.Status)
	termsGrp.Post("/accept", termsH.Accept)
	termsGrp.Post("/decline", termsH.Decline)

	// session + accepted terms
	gated := func(prefix string) fiber.Router {
		return api.Group(prefix, withSession(terms)...)
	}

	account := gated("/account")
	account.Get("/permissions", permH.Me)
	account.Post("/documents/:kind", docH.Upload)

	tasks := gated("/tasks")
	tasks.Get("/unseen-bids", taskH.UnseenBids)
	tasks.Get("/:id", taskH.Get)
	tasks.Post("/:id/bids",
		middleware.RequireRoles(string(models.RoleWorker), string(models.RoleAdmin)),
		middleware.BidGate(d.Engine, d.Store, "id"),
		bidH.Create,
	)

	bids := gated("/bids")
	bids.Post("/:id/checkout",
		middleware.RequireRoles(string(models.RoleRequester), string(models.RoleAdmin)),
		bidH.Checkout,
	)

	messages := gated("/messages")
	messages.Post("/", msgH.Send)
	messages.Get("/eligibility/:userId", msgH.Eligibility)

	admin := gated("/admin")
	admin.Use(middleware.RequireRoles(string(models.RoleAdmin)))
	admin.Get("/users/pending-verification", adminH.PendingVerification)
	admin.Patch("/users/:id/verification", adminH.SetVerification)

	// request submission page: route gate first so workers are redirected
	// and unverified requesters get the verification notice
	submit := app.Group("/submit-request", withSession(terms, middleware.RouteGate(d.Engine))...)
	submit.Post("/details",
		middleware.RequireRoles(string(models.RoleRequester), string(models.RoleAdmin)),
		taskH.Submit,
	)

	if d.Hub != nil {
		ws := app.Group("/ws", withSession(func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})...)
		ws.Get("/", websocket.New(realtime.ServeWS(d.Hub)))
	}
}
