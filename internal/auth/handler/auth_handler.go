package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/Yorkamc/GesCo/internal/auth/dto"
	"github.com/Yorkamc/GesCo/internal/auth/service"
	autherror "github.com/Yorkamc/GesCo/internal/errors"
	"github.com/Yorkamc/GesCo/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	tokens      service.TokenGenerator
	env         string
}

func NewAuthHandler(authService *service.AuthService, tokens service.TokenGenerator, env string) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, env: env}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("invalid input"))
	}

	user, err := h.authService.Register(c.Context(), input)
	if err != nil {
		if ve, ok := autherror.AsValidation(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("validation failed", ve.Reasons...))
		}
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(err.Error()))
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(user, "user registered"))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("invalid input"))
	}

	input.IPAddress = clientIP(c)
	input.UserAgent = userAgent(c)

	resp, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrAccountLocked):
			return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse(err.Error()))
		case errors.Is(err, autherror.ErrInvalidCredentials), errors.Is(err, autherror.ErrAccountInactive):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(err.Error()))
		default:
			return internalError(c)
		}
	}

	return c.Status(fiber.StatusOK).JSON(dto.SuccessResponse(resp, "login successful"))
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("invalid input"))
	}

	input.IPAddress = clientIP(c)
	input.UserAgent = userAgent(c)

	resp, err := h.authService.Refresh(c.Context(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrInvalidRefreshToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(err.Error()))
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(dto.SuccessResponse(resp, "token refreshed"))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionToken := bearerToken(c)
	if sessionToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(autherror.ErrSessionTokenMissing.Error()))
	}

	ok, err := h.authService.Logout(c.Context(), sessionToken)
	if err != nil {
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(dto.SuccessResponse(ok, "session closed"))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := c.Locals(localsClaimsKey).(*service.AccessTokenClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("unauthorized"))
	}

	return c.Status(fiber.StatusOK).JSON(dto.SuccessResponse(fiber.Map{
		"id":              claims.Subject,
		"email":           claims.Email,
		"name":            claims.Name,
		"organization_id": claims.OrganizationID,
	}, "user info"))
}

func (h *AuthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(dto.SuccessResponse(fiber.Map{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.env,
	}, "server running"))
}

func internalError(c *fiber.Ctx) error {
	// The original failure is logged upstream; clients only ever see this.
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse("internal server error"))
}

// clientIP resolves the original client address behind proxies:
// X-Forwarded-For first, then X-Real-IP, then the connection address. A proxy
// chain yields a comma-separated list; the first entry is the client.
func clientIP(c *fiber.Ctx) string {
	ip := c.Get("X-Forwarded-For")
	if ip == "" {
		ip = c.Get("X-Real-IP")
	}
	if ip == "" {
		ip = c.IP()
	}

	if idx := strings.IndexByte(ip, ','); idx >= 0 {
		ip = strings.TrimSpace(ip[:idx])
	}
	if ip == "" {
		return constant.UnknownIPAddress
	}
	if len(ip) > constant.MaxIPAddressLength {
		ip = ip[:constant.MaxIPAddressLength]
	}
	return ip
}

func userAgent(c *fiber.Ctx) string {
	ua := c.Get(fiber.HeaderUserAgent)
	if ua == "" {
		return constant.UnknownUserAgent
	}
	if len(ua) > constant.MaxUserAgentLength {
		ua = ua[:constant.MaxUserAgentLength]
	}
	return ua
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(constant.AuthorizationHeader)
	if !strings.HasPrefix(header, constant.BearerSchemePrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, constant.BearerSchemePrefix))
}
