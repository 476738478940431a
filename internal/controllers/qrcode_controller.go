package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"shortly-live/internal/apperr"
	"shortly-live/internal/service"
)

const qrCodeSize = 256

type QRCodeController struct {
	urlService service.URLService
}

func NewQRCodeController(urlService service.URLService) *QRCodeController {
	return &QRCodeController{
		urlService: urlService,
	}
}

// GenerateQRCode handles GET /api/urls/qrcode/:id, a PNG encoding the short URL
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	url, err := qc.urlService.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}

	pngData, err := qrcode.Encode(url.ShortURL, qrcode.Medium, qrCodeSize)
	if err != nil {
		fail(c, apperr.Internal("Failed to generate QR code", err))
		return
	}

	c.Header("Content-Disposition", "inline; filename="+url.ShortCode+".png")
	c.Data(http.StatusOK, "image/png", pngData)
}
