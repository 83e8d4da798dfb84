package handler

import (
	"fmt"
	"net/http"

	"eventsite_backend/internal/pdf"

	"github.com/gin-gonic/gin"
)

const contentTypePDF = "application/pdf"

func servePDFBytes(c *gin.Context, doc *pdf.Document) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	if doc.Fallback {
		c.Header("X-Document-Fallback", "true")
	}
	c.Data(http.StatusOK, contentTypePDF, doc.Bytes)
}
