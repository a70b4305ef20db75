package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
)

// AttachmentHandler streams stored lampiran files.
type AttachmentHandler struct {
	attachmentService services.AttachmentServicer
	store             AttachmentStore
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachmentService services.AttachmentServicer, store AttachmentStore) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService, store: store}
}

// GetAttachment streams an attachment file
// @Summary     Download a lampiran
// @Description Stream the stored file of an attachment the user can see.
// @Tags        attachments
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       id path string true "Attachment ID"
// @Success     200 {file} file "Attachment file"
// @Failure     404 {object} ErrorResponse "Attachment not found"
// @Router      /attachments/{id} [get]
func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	attachment, err := h.attachmentService.GetAttachment(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := h.store.Open(attachment.Path)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", attachment.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": attachment.FileName}))
	c.Header("Cache-Control", "private, max-age=86400")
	http.ServeContent(c.Writer, c.Request, attachment.FileName, attachment.CreatedAt, f)
}
