package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Sukhmangill977/majoor2.0/internal/jwt"
	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the wire shape of a user record. The password hash never
// appears here.
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Token          string    `json:"token,omitempty"`
}

func toUserResponse(user *model.User, token string) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
		Token:          token,
	}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var request SignupRequest

	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	user, token, err := h.authService.Register(c.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		return mapServiceError(err)
	}

	setAccessTokenCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user, token))
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var request SigninRequest

	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	user, token, err := h.authService.Login(c.Context(), request.Email, request.Password)
	if err != nil {
		return mapServiceError(err)
	}

	setAccessTokenCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(toUserResponse(user, token))
}

// Signout only clears the cookie; tokens are stateless so there is nothing to
// revoke server-side.
func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Signout success"})
}

func setAccessTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Expires:  time.Now().Add(jwt.DefaultTTL),
		HTTPOnly: true,
	})
}
