package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"videothingy/reel-pipeline/utils"
)

// ProcessVideoRequest is the query of POST /process-video.
type ProcessVideoRequest struct {
	VideoID string `query:"video_id" validate:"required,videoid"`
}

// FetchClips godoc
// @Summary Fetch the newest channel videos
// @Description Downloads videos not already under originals/ and stores them.
// @Tags reels
// @Produce json
// @Success 200 {object} pipeline.FetchResult
// @Failure 200 {object} utils.ErrorResponse "Reported with status error"
// @Router /fetch-clips [get]
func (h *ApplicationHandler) FetchClips(c *fiber.Ctx) error {
	res, err := h.Pipeline.Fetch(c.UserContext())
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Fetch failed")
		return utils.RespondWithError(c, err)
	}
	return utils.RespondWithSuccess(c, res)
}

// AutoProcess godoc
// @Summary Fetch and process the newest video
// @Description Stores the newest channel video if needed, then cuts it into reels.
// @Description A processing failure is reported inside processing_result.
// @Tags reels
// @Produce json
// @Success 200 {object} pipeline.AutoResult
// @Failure 200 {object} utils.ErrorResponse "Reported with status error"
// @Router /auto-process [post]
func (h *ApplicationHandler) AutoProcess(c *fiber.Ctx) error {
	res, err := h.Pipeline.Auto(c.UserContext())
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Auto process failed")
		return utils.RespondWithError(c, err)
	}
	return utils.RespondWithSuccess(c, res)
}

// ProcessVideo godoc
// @Summary Process a stored video
// @Description Transcribes originals/{video_id}.mp4, picks highlights and uploads the reels.
// @Tags reels
// @Produce json
// @Param video_id query string true "Video id already in storage"
// @Success 200 {object} pipeline.ProcessResult
// @Failure 200 {object} utils.ErrorResponse "Reported with status error"
// @Router /process-video [post]
func (h *ApplicationHandler) ProcessVideo(c *fiber.Ctx) error {
	req := new(ProcessVideoRequest)
	if err := c.QueryParser(req); err != nil {
		return utils.RespondWithError(c, err)
	}
	req.VideoID = utils.SanitizeInput(req.VideoID)
	if err := validate.Struct(req); err != nil {
		return utils.RespondWithError(c, errors.New(strings.Join(utils.FormatValidationErrors(err), "; ")))
	}

	res, err := h.Pipeline.Process(c.UserContext(), req.VideoID)
	if err != nil {
		return utils.RespondWithError(c, err)
	}
	return utils.RespondWithSuccess(c, res)
}
