package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

// bind parses the body into dst and runs struct validation. A non-nil
// FieldErrors means the response should be a validation failure.
func bind(c *fiber.Ctx, dst interface{}) (FieldErrors, error) {
	if err := c.BodyParser(dst); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	err := validate.Struct(dst)
	if err == nil {
		return nil, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, err
	}
	errs := FieldErrors{}
	for _, fe := range ves {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs, nil
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "should have value in: " + fe.Param()
	case "max", "lte":
		if isString {
			return "length should be less or equal than " + fe.Param()
		}
		return "should be less or equal than " + fe.Param()
	case "min", "gte":
		if isString {
			return "length should be greater or equal than " + fe.Param()
		}
		return "should be greater or equal than " + fe.Param()
	case "gt":
		return "should be greater than " + fe.Param()
	}
	return "incorrect value passed"
}

func setSession(c *fiber.Ctx, token string, expiresMin int) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   expiresMin * 60,
	})
}

func clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   -1,
	})
}

func fail500(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// ErrorHandler renders fiber errors with the same envelope as handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}
