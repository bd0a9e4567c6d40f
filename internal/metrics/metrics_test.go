package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/things/:id", "204"))
	for _, id := range []string{"1", "2", "3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/things/"+id, nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}
	after := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/things/:id", "204"))
	if after-before != 3 {
		t.Errorf("expected 3 requests counted under the route template, got %v", after-before)
	}

	before = testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/boom", "418"))
	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/boom", "418")); got-before != 1 {
		t.Errorf("expected fiber error status to be recorded, got delta %v", got-before)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "success" {
		t.Error("nil error should be success")
	}
	if Outcome(errors.New("x")) != "error" {
		t.Error("non-nil error should be error")
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	Register()
	Register()

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
