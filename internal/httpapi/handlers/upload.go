package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"terrastore/internal/auth"
	"terrastore/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Upload ingests one multipart file (field "file"). The part is staged to
// disk first; the staging file is removed on every exit path.
func (h *Handler) Upload(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if header.Size > h.cfg.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	part, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid uploaded file")
	}
	staged, err := h.staging.Stage(io.LimitReader(part, h.cfg.MaxUploadBytes+1))
	_ = part.Close()
	if err != nil {
		return mapServiceError(err)
	}
	defer h.staging.Remove(staged)

	f, err := h.staging.Open(staged)
	if err != nil {
		return mapServiceError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return mapServiceError(err)
	}
	if info.Size() > h.cfg.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	if _, err := h.svc.UploadFile(c.Request().Context(), claims.UserID, header.Filename, f); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "file uploaded and stored successfully",
	})
}

// ListUploads returns the caller's files: names and types only.
func (h *Handler) ListUploads(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	files, err := h.svc.ListFiles(c.Request().Context(), claims.UserID)
	if err != nil {
		return mapServiceError(err)
	}

	out := make([]map[string]any, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]any{
			"id":   f.ID.String(),
			"name": f.Name,
			"type": f.Type,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetContent streams the decoded bytes of a file with the mapped MIME type.
func (h *Handler) GetContent(c echo.Context) error {
	if _, ok := auth.GetClaims(c); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	content, err := h.svc.FetchContent(c.Request().Context(), fileID)
	if err != nil {
		return mapServiceError(err)
	}

	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(content.Bytes)))
	return c.Blob(http.StatusOK, service.ContentTypeFor(content.Type), content.Bytes)
}

// CreateAnnotation stores a drawn-features JSON payload as a geojson file.
func (h *Handler) CreateAnnotation(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var body struct {
		Name    string          `json:"name"`
		Content json.RawMessage `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec, err := h.svc.SaveAnnotation(c.Request().Context(), claims.UserID, body.Name, body.Content)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":        rec.ID.String(),
		"name":      rec.Name,
		"type":      rec.Type,
		"size":      rec.SizeBytes,
		"createdAt": toMillis(rec.CreatedAt),
	})
}
