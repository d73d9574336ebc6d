package web

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"checkin-bot/internal/daily"
)

// Batch is the trigger boundary's view of the orchestrator.
type Batch interface {
	Run(ctx context.Context) (daily.Result, error)
}

// Server exposes the authenticated daily trigger. The batch runs
// synchronously inside the request, so no write timeout is set on the
// app; a hung downstream call blocks the caller, as the batch itself
// has no timeouts.
type Server struct {
	app       *fiber.App
	batch     Batch
	cronToken string
	log       *zap.Logger
}

func New(batch Batch, cronToken string, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{app: app, batch: batch, cronToken: cronToken, log: log.Named("web")}

	app.Get("/healthz", s.health)
	app.Get("/daily", s.cronAuth, s.triggerDaily)
	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// cronAuth gates the trigger on a shared secret. A mismatch has no side
// effects.
func (s *Server) cronAuth(c *fiber.Ctx) error {
	token := c.Get("X-Cron-Token")
	if token == "" || token != s.cronToken {
		s.log.Warn("unauthorized daily trigger attempt", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}
	return c.Next()
}

func (s *Server) triggerDaily(c *fiber.Ctx) error {
	res, err := s.batch.Run(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("Error: %s", err))
	}
	return c.SendString(res.Status())
}
