package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/s3"
	"github.com/Sukhmangill977/majoor2.0/internal/service"
)

type UserHandler struct {
	userService   service.UserService
	validate      *validator.Validate
	filePresigner *s3.FilePresigner
}

func NewUserHandler(userService service.UserService, presigner *s3.FilePresigner) *UserHandler {
	return &UserHandler{
		userService:   userService,
		validate:      validator.New(),
		filePresigner: presigner,
	}
}

type UpdateUserRequest struct {
	Username       *string `json:"username,omitempty" validate:"omitempty,min=2"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Password       *string `json:"password,omitempty" validate:"omitempty,min=6"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,url"`
}

type UploadPDFRequest struct {
	DownloadURL string `json:"downloadURL" validate:"required,url"`
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}

	callerID, err := CallerID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	updatedUser, err := h.userService.UpdateProfile(c.Context(), callerID, targetID, service.UpdateUserDTO{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toUserResponse(updatedUser, ""))
}

func (h *UserHandler) UploadPDF(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}

	callerID, err := CallerID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
	}

	var req UploadPDFRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	pdfURLs, err := h.userService.AttachFile(c.Context(), callerID, targetID, req.DownloadURL, model.FileKindPDF)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"pdfUrls": pdfURLs})
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}

	callerID, err := CallerID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
	}

	if err := h.userService.DeleteAccount(c.Context(), callerID, targetID); err != nil {
		return mapServiceError(err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User has been deleted"})
}

// ListPDFs returns the caller's attachment list in upload order.
func (h *UserHandler) ListPDFs(c *fiber.Ctx) error {
	callerID, err := CallerID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
	}

	pdfURLs, err := h.userService.ListFiles(c.Context(), callerID, model.FileKindPDF)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"pdfUrls": pdfURLs})
}

// GetUploadURL hands the client a presigned PUT target for the requested
// file kind. The client streams bytes there directly; the server never
// proxies file content.
func (h *UserHandler) GetUploadURL(c *fiber.Ctx) error {
	callerID, err := CallerID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "You are not authenticated")
	}

	kind := model.FileKind(c.Params("kind"))
	if kind != model.FileKindAvatar && kind != model.FileKindPDF {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown file kind")
	}

	target, err := h.filePresigner.PresignUpload(c.Context(), callerID.String(), kind)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not generate upload URL")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"uploadUrl": target.UploadURL,
		"fileUrl":   target.FileURL,
	})
}
