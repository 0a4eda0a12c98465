package service

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/google/uuid"
	"github.com/theapemachine/taskflow-go/pkg/transport"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

const (
	DefaultWebhookAddr = ":3210"
	DefaultWebhookPath = "/webhook"
)

/*
WebhookHandler receives every decoded delivery. Returning an error answers
the sender with a 500.
*/
type WebhookHandler func(deliveryID string, payload *types.WebhookPayload) error

type WebhookOptions struct {
	Addr    string
	Path    string
	Handler WebhookHandler
	Logger  *log.Logger
}

/*
WebhookServer is a small receiver for the payloads the workflow service
posts on task updates. It decodes and hands them on; it does not verify the
sender.
*/
type WebhookServer struct {
	app    *fiber.App
	addr   string
	path   string
	handle WebhookHandler
	log    *log.Logger
}

func NewWebhookServer(opts WebhookOptions) *WebhookServer {
	if opts.Addr == "" {
		opts.Addr = DefaultWebhookAddr
	}

	if opts.Path == "" {
		opts.Path = DefaultWebhookPath
	}

	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	srv := &WebhookServer{
		app: fiber.New(fiber.Config{
			AppName:      "taskflow-webhook",
			ServerHeader: "taskflow-webhook",
		}),
		addr:   opts.Addr,
		path:   opts.Path,
		handle: opts.Handler,
		log:    opts.Logger,
	}

	srv.app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/"
		},
	}))

	srv.app.Get("/", srv.handleRoot)
	srv.app.Post(srv.path, srv.handleWebhook)

	return srv
}

func (srv *WebhookServer) App() *fiber.App {
	return srv.app
}

func (srv *WebhookServer) Start() error {
	srv.log.Info("listening for webhooks", "addr", srv.addr, "path", srv.path)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *WebhookServer) Shutdown() error {
	return srv.app.Shutdown()
}

func (srv *WebhookServer) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *WebhookServer) handleWebhook(ctx fiber.Ctx) error {
	deliveryID := ctx.Get(transport.HeaderRequestID)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	payload, err := types.ParseWebhookPayload(ctx.Body())
	if err != nil {
		srv.log.Warn("rejected webhook", "delivery", deliveryID, "error", err)
		return ctx.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	srv.log.Debug("webhook received", "delivery", deliveryID, "taskId", payload.TaskID, "status", payload.Status)

	if srv.handle != nil {
		if err := srv.handle(deliveryID, payload); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{"delivery": deliveryID})
}
