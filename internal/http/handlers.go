package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rioastal/wastesense/internal/domain"
	"github.com/rioastal/wastesense/internal/service"
)

// Register wires the record routes. /data/all must come before /data/:id or
// fiber would treat "all" as an id.
func Register(app *fiber.App, svcs *service.Services) {
	app.Get("/data", listRecords(svcs))
	app.Post("/data", createRecord(svcs))
	app.Delete("/data/all", deleteAllRecords(svcs))
	app.Put("/data/:id", updateRecord(svcs))
	app.Delete("/data/:id", deleteRecord(svcs))
}

func listRecords(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sensor := domain.ParseSensor(c.Query("sensor"))
		records, err := svcs.Records.List(c.UserContext(), sensor)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(records)
	}
}

func createRecord(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields domain.Fields
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
		}
		rec, err := svcs.Records.Create(c.UserContext(), fields)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

func updateRecord(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields domain.Fields
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
		}
		rec, err := svcs.Records.UpdateByID(c.UserContext(), c.Params("id"), fields)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(rec)
	}
}

func deleteRecord(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svcs.Records.DeleteByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(rec)
	}
}

func deleteAllRecords(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sensor := domain.ParseSensor(c.Query("sensor"))
		deleted, err := svcs.Records.DeleteAll(c.UserContext(), sensor)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Records deleted successfully.",
			"deleted": deleted,
		})
	}
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found."})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Required sensor data missing."})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
}
