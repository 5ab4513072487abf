package handlers

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"videothingy/reel-pipeline/models"
	"videothingy/reel-pipeline/utils"
)

// UploadResponse is returned after a manual upload.
type UploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// UploadVideo godoc
// @Summary Upload a video
// @Description Stores the multipart file under the test/ prefix of the bucket.
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Video file"
// @Success 200 {object} UploadResponse
// @Failure 200 {object} utils.ErrorResponse "Reported with status error"
// @Router /upload [post]
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		h.Logger.Errorf("Error getting file from request: %v", err)
		return utils.RespondWithError(c, fmt.Errorf("error getting file: %w", err))
	}

	// Only the base name is kept so uploads cannot escape test/.
	filename := filepath.Base(utils.SanitizeInput(file.Filename))
	if filename == "." || filename == "/" || filename == "" {
		return utils.RespondWithError(c, fmt.Errorf("invalid filename %q", file.Filename))
	}

	fileHandle, err := file.Open()
	if err != nil {
		h.Logger.Errorf("Error opening file: %v", err)
		return utils.RespondWithError(c, fmt.Errorf("error opening file: %w", err))
	}
	defer fileHandle.Close()

	objectPath := models.TestUploadPath(filename)
	if err := h.Store.Upload(objectPath, fileHandle); err != nil {
		h.Logger.WithField("path", objectPath).Errorf("Error uploading file: %v", err)
		return utils.RespondWithError(c, err)
	}

	h.Logger.WithField("path", objectPath).Info("Video uploaded")
	return c.JSON(UploadResponse{
		Status:   utils.StatusSuccess,
		Filename: filename,
		Message:  "Video uploaded successfully",
	})
}
