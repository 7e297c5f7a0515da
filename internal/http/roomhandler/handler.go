package roomhandler

import (
	"errors"
	"io"
	"net/http"

	"postcardrelay/internal/services/images"
	"postcardrelay/internal/services/rooms"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	roomSvc  rooms.IRoomService
	imageSvc images.IImageService
}

func New(roomSvc rooms.IRoomService, imageSvc images.IImageService) *Handler {
	return &Handler{roomSvc: roomSvc, imageSvc: imageSvc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/rooms", h.create)
	r.GET("/rooms/:id/image", h.roomImage)
	r.GET("/images/:id", h.image)
}

// @Summary		Create a drawing room
// @Description	Uploads a background image and creates a room record linked to it.
// @Tags			Rooms
// @Accept			multipart/form-data
// @Param			image	formData	file	true	"Background image"
// @Success		200	{object}	rooms.RoomDTO
// @Failure		400	{object}	ErrorResponse
// @Failure		500	{object}	ErrorResponse
// @Router			/rooms [post]
func (h *Handler) create(ginCtx *gin.Context) {
	fileHeader, err := ginCtx.FormFile("image")
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "missing image"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	imageID, err := h.imageSvc.Upload(ginCtx.Request.Context(), data, contentType)
	if err != nil {
		if errors.Is(err, images.ErrInvalidFileType) {
			ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
			return
		}
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.roomSvc.CreateRoom(ginCtx.Request.Context(), imageID)
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}

// @Summary		Get a room's background image
// @Description	Resolves the image linked to a room and returns its bytes.
// @Tags			Rooms
// @Param			id	path	string	true	"Room ID"
// @Success		200
// @Failure		404	{object}	ErrorResponse
// @Router			/rooms/{id}/image [get]
func (h *Handler) roomImage(ginCtx *gin.Context) {
	dto, err := h.roomSvc.GetImageConnectedToRoom(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: "not found"})
		return
	}

	data, contentType, err := h.imageSvc.Collect(ginCtx.Request.Context(), dto.ImageID)
	if err != nil {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: "not found"})
		return
	}
	ginCtx.Data(http.StatusOK, contentType, data)
}

// @Summary		Get an image
// @Description	Returns a stored image by id.
// @Tags			Images
// @Param			id	path	string	true	"Image ID"
// @Success		200
// @Failure		404	{object}	ErrorResponse
// @Router			/images/{id} [get]
func (h *Handler) image(ginCtx *gin.Context) {
	data, contentType, err := h.imageSvc.Collect(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: "not found"})
		return
	}
	ginCtx.Data(http.StatusOK, contentType, data)
}
