package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type TaskHandler struct {
	Store     store.Entities
	Engine    *policy.Engine
	Lifecycle *lifecycle.Lifecycle
}

type TaskReq struct {
	Title       string     `json:"title" validate:"required,max=60"`
	Description string     `json:"description" validate:"required,max=800"`
	Category    string     `json:"category" validate:"max=80"`
	City        string     `json:"city" validate:"max=80"`
	Budget      int64      `json:"budget" validate:"gt=0"`
	TaskDate    *time.Time `json:"task_date"`
}

// Submit creates a task. The route gate has already run for this path.
func (h *TaskHandler) Submit(c *fiber.Ctx) error {
	var req TaskReq
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	actor := middleware.Actor(c)
	ctx := c.UserContext()
	d, err := h.Engine.Authorize(ctx, policy.PublishTaskText, actor, policy.Input{
		Title:       req.Title,
		Description: req.Description,
	})
	if stop, werr := middleware.Enforce(c, d, err); stop {
		return werr
	}

	t := &models.Task{
		OwnerID:     actor.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Budget:      req.Budget,
		TaskDate:    req.TaskDate,
		Status:      models.TaskPublished,
	}
	if err := h.Store.CreateTask(ctx, t); err != nil {
		return fail500(c, "failed to create task")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "task published",
		"data":     t,
		"redirect": "/requests/",
	})
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}
	t, err := h.Lifecycle.ViewTask(c.UserContext(), middleware.Actor(c), id)
	if errors.Is(err, store.ErrNotFound) {
		return middleware.Deny(c, policy.Deny(policy.ReasonEntityNotFound, "This task no longer exists."))
	}
	if err != nil {
		return fail500(c, "failed to load task")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"task":    t,
			"expired": t.Expired(h.Lifecycle.Now()),
		},
	})
}

func (h *TaskHandler) UnseenBids(c *fiber.Ctx) error {
	n, err := h.Lifecycle.UnseenBidCount(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return fail500(c, "failed to count bids")
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"unseen": n}})
}
