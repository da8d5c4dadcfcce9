package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"plant-backend/internal/models"
	"plant-backend/internal/services"
	"plant-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ImageField is the multipart field carrying an uploaded image.
const ImageField = "image"

// ListPlantsHandler returns all plants, newest first
func ListPlantsHandler(svc *services.PlantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plants, err := svc.List(c.Context())
		if err != nil {
			return writeError(c, "list plants", err)
		}
		return c.JSON(plants)
	}
}

// GetPlantHandler returns a single plant by id
func GetPlantHandler(svc *services.PlantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plant, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, "get plant", err)
		}
		return c.JSON(plant)
	}
}

// CreatePlantHandler creates a plant from a name and an image URL or a
// multipart file in the "image" field. The file wins when both are sent.
func CreatePlantHandler(svc *services.PlantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreatePlantRequest
		if err := parseBody(c, &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid request"})
		}

		img, closeFile, err := imageInput(c, req.ImageURL)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid image upload"})
		}
		defer closeFile()

		plant, err := svc.Create(c.Context(), req.Name, img)
		if err != nil {
			return writeError(c, "create plant", err)
		}
		return c.Status(http.StatusCreated).JSON(plant)
	}
}

// AppendImageHandler adds one image (URL or multipart file) to a plant
func AppendImageHandler(svc *services.PlantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.AppendImageRequest
		if err := parseBody(c, &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid request"})
		}

		img, closeFile, err := imageInput(c, req.ImageURL)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid image upload"})
		}
		defer closeFile()

		plant, err := svc.AppendImage(c.Context(), c.Params("id"), img)
		if err != nil {
			return writeError(c, "append image", err)
		}
		return c.JSON(plant)
	}
}

// parseBody is BodyParser that treats an empty body without a content type as
// an empty request, so validation reports the missing fields.
func parseBody(c *fiber.Ctx, out any) error {
	err := c.BodyParser(out)
	if errors.Is(err, fiber.ErrUnprocessableEntity) && len(c.Body()) == 0 {
		return nil
	}
	return err
}

// imageInput collects the URL and, for multipart requests, the uploaded file.
// The returned func closes the opened file.
func imageInput(c *fiber.Ctx, url string) (services.ImageInput, func(), error) {
	in := services.ImageInput{URL: url}
	noop := func() {}

	fileHeader, err := c.FormFile(ImageField)
	if err != nil {
		// not multipart, or no file attached
		return in, noop, nil
	}

	f, err := fileHeader.Open()
	if err != nil {
		return in, noop, err
	}
	in.File = &services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: contentType(fileHeader),
		Body:        f,
	}
	return in, func() { _ = f.Close() }, nil
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// writeError maps service errors onto the API's status codes. Storage failure
// details are logged and replaced by a generic message.
func writeError(c *fiber.Ctx, op string, err error) error {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"msg": verr.Message(), "fields": verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"msg": "Plant not found"})
	default:
		log.Error().Err(err).Str("op", op).Str("path", c.Path()).Msg("request failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"msg": "Server Error"})
	}
}
