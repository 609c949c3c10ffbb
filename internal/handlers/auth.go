package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/utils"
)

type AuthHandler struct {
	Store     store.Users
	Lifecycle *lifecycle.Lifecycle
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string `json:"name" validate:"max=120"`
	Login    string `json:"login" validate:"required,min=3,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=requestor bee"`
}

func (h *AuthHandler) Roles(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"label":   lifecycle.RoleChoiceLabel,
			"options": lifecycle.RoleOptions,
		},
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return fail500(c, "failed to process password")
	}

	u := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Login:    strings.TrimSpace(req.Login),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: pw,
		Role:     models.RoleSubscriber,
		IsActive: true,
	}
	ctx := c.UserContext()
	if err := h.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errs := FieldErrors{}
			errs.Add("email", "email or login already registered")
			return validationFail(c, errs)
		}
		log.Printf("Register: create user: %v", err)
		return fail500(c, "failed to register")
	}

	if err := h.Lifecycle.AssignRegistrationRole(ctx, u.ID, req.Role); err != nil {
		log.Printf("Register: assign role for %s: %v", u.ID, err)
		return fail500(c, "failed to assign role")
	}

	state, err := h.Lifecycle.OnUserRegistered(ctx, u.ID)
	if err != nil {
		log.Printf("Register: post-registration for %s: %v", u.ID, err)
		return fail500(c, "failed to finish registration")
	}

	if err := h.startSession(c, state.User); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "registered",
		"data":    state,
	})
}

// ChooseRole lets a user created without a role (Google sign-in) pick one.
func (h *AuthHandler) ChooseRole(c *fiber.Ctx) error {
	var req struct {
		Role string `json:"role" validate:"required,oneof=requestor bee"`
	}
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	actor := middleware.Actor(c)
	ctx := c.UserContext()
	if err := h.Lifecycle.AssignRegistrationRole(ctx, actor.ID, req.Role); err != nil {
		if errors.Is(err, lifecycle.ErrRoleAlreadyAssigned) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "role already chosen",
			})
		}
		return fail500(c, "failed to assign role")
	}

	state, err := h.Lifecycle.OnUserRegistered(ctx, actor.ID)
	if err != nil {
		return fail500(c, "failed to finish registration")
	}
	if err := h.startSession(c, state.User); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": state})
}

type LoginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	u, err := h.Store.FindUserByLogin(ctx, req.Login)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fail500(c, "failed to load user")
	}
	if u == nil || !utils.CheckPassword(u.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid login or password",
		})
	}
	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "account is not active",
		})
	}

	state, err := h.Lifecycle.OnUserLoggedIn(ctx, u.ID)
	if err != nil {
		log.Printf("Login: post-login for %s: %v", u.ID, err)
		return fail500(c, "failed to log in")
	}
	if err := h.startSession(c, state.User); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged in",
		"data":    state,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearSession(c)
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

func (h *AuthHandler) startSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail500(c, "failed to sign token")
	}
	setSession(c, token, h.Expires)
	return nil
}
