package controller

import (
	"github.com/Natthaphatpiw/agn-chat/internal/dto"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/serverutils"
	"github.com/Natthaphatpiw/agn-chat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	RegisterLegacyRoutes(app *fiber.App)
	CreateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	LegacyChat(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
}

func NewChatbotController(service service.IChatbotService) IChatbotController {
	return &chatbotController{service: service}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.SendChat)
	h.Post("/session", c.CreateSession)
	h.Delete("/session/:id", c.DeleteSession)
}

// RegisterLegacyRoutes mounts the unversioned endpoints that answer with bare bodies.
func (c *chatbotController) RegisterLegacyRoutes(app *fiber.App) {
	app.Post("/chat", c.LegacyChat)
	app.Get("/health", c.Health)
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	res, err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	message := "Session deleted"
	if !res.Found {
		message = "Session not found"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	res, err := c.chat(ctx)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatbotController) LegacyChat(ctx *fiber.Ctx) error {
	res, err := c.chat(ctx)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatbotController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Health(ctx.UserContext()))
}

func (c *chatbotController) chat(ctx *fiber.Ctx) (*dto.ChatResponse, error) {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, apperror.InvalidRequest("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	return c.service.Chat(ctx.UserContext(), &req)
}
