package path

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"backend-walkpath/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the path endpoints. The user identity middleware
// must run earlier and leave user_no in locals.
func RegisterRoutes(r fiber.Router, svc *Service, images *storage.Service) {
	r.Post("/save-gps-record", func(c *fiber.Ctx) error {
		userNo := userNoFromLocals(c)

		coordsRaw := c.FormValue("coordinates")
		if coordsRaw == "" {
			return fail(c, fiber.StatusBadRequest, "coordinates required")
		}
		var coords []CoordinateInput
		if err := json.Unmarshal([]byte(coordsRaw), &coords); err != nil {
			return fail(c, fiber.StatusBadRequest, "coordinates must be a JSON array")
		}

		input := SaveInput{
			UserNo:           userNo,
			Name:             c.FormValue("pathName"),
			Description:      c.FormValue("pathDescription"),
			TagNo:            parseTagNo(c.FormValue("pathTagNo")),
			Coordinates:      coords,
			DistanceKm:       parseFloat(c.FormValue("totalDistance")),
			EstimatedTimeMin: parseFloat(c.FormValue("estimatedTime")),
		}

		if file, err := c.FormFile("pathImage"); err == nil && file != nil {
			src, err := file.Open()
			if err != nil {
				return fail(c, fiber.StatusBadRequest, "unreadable image upload")
			}
			data, err := io.ReadAll(src)
			_ = src.Close()
			if err != nil {
				return fail(c, fiber.StatusBadRequest, "unreadable image upload")
			}
			ref, err := images.StoreImage(c.Context(), userNo, file.Filename,
				file.Header.Get("Content-Type"), data)
			switch {
			case errors.Is(err, storage.ErrNotImage), errors.Is(err, storage.ErrTooLarge):
				return fail(c, fiber.StatusBadRequest, err.Error())
			case err != nil:
				return fail(c, fiber.StatusInternalServerError, "image store failed")
			}
			input.ImageRef = ref
		}

		pathNo, err := svc.Save(c.Context(), input)
		if err != nil {
			return fail(c, statusFor(err), err.Error())
		}
		return c.JSON(fiber.Map{
			"success": true,
			"pathNo":  pathNo,
			"message": "path saved",
		})
	})

	r.Get("/my-paths", func(c *fiber.Ctx) error {
		paths, err := svc.MyPaths(c.Context(), userNoFromLocals(c))
		if err != nil {
			return fail(c, statusFor(err), err.Error())
		}
		if paths == nil {
			paths = []Summary{}
		}
		return c.JSON(fiber.Map{"success": true, "paths": paths})
	})

	r.Get("/tags", func(c *fiber.Ctx) error {
		tags, err := svc.Tags(c.Context())
		if err != nil {
			return fail(c, statusFor(err), err.Error())
		}
		if tags == nil {
			tags = []Tag{}
		}
		return c.JSON(fiber.Map{"success": true, "tags": tags})
	})

	r.Get("/:pathNo/details", func(c *fiber.Ctx) error {
		pathNo, err := strconv.ParseInt(c.Params("pathNo"), 10, 64)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid path number")
		}
		view, coords, err := svc.Load(c.Context(), pathNo)
		if err != nil {
			return fail(c, statusFor(err), err.Error())
		}
		if coords == nil {
			coords = []Coordinate{}
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"path":        view,
			"coordinates": coords,
		})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyRoute), errors.Is(err, ErrInvalidCoordinate):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

func userNoFromLocals(c *fiber.Ctx) int64 {
	if userNo, ok := c.Locals("user_no").(int64); ok {
		return userNo
	}
	return 1
}

func parseTagNo(raw string) *int64 {
	tagNo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tagNo <= 0 {
		return nil
	}
	return &tagNo
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
