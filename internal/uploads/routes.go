package uploads

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadAuthorizer mints presigned PUT URLs and deletes stored objects.
// S3Presigner is the production implementation.
type UploadAuthorizer interface {
	PresignPut(ctx context.Context, fileName string, fileType string) (string, error)
	DeleteObject(ctx context.Context, fileName string) error
}

// MountUploadRoutes registers the presigned-upload endpoints:
//
//	GET /generate-presigned-url?fileName=..&fileType=..
//	GET /delete-image?fileName=..
func MountUploadRoutes(router gin.IRouter, authorizer UploadAuthorizer, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	router.GET("/generate-presigned-url", func(contextGin *gin.Context) {
		fileName := contextGin.Query("fileName")
		fileType := contextGin.Query("fileType")
		if strings.TrimSpace(fileName) == "" || strings.TrimSpace(fileType) == "" {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_file_name_or_type"})
			return
		}

		presignedURL, presignErr := authorizer.PresignPut(contextGin, fileName, fileType)
		if presignErr != nil {
			logger.Error("presign failed",
				zap.String("code", "uploads.presign.failed"),
				zap.String("file_name", fileName),
				zap.Error(presignErr))
			contextGin.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "presign_failed"})
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"url": presignedURL})
	})

	router.GET("/delete-image", func(contextGin *gin.Context) {
		fileName := contextGin.Query("fileName")
		if strings.TrimSpace(fileName) == "" {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_file_name"})
			return
		}

		if deleteErr := authorizer.DeleteObject(contextGin, fileName); deleteErr != nil {
			logger.Warn("object deletion failed",
				zap.String("code", "uploads.delete.failed"),
				zap.String("file_name", fileName),
				zap.Error(deleteErr))
			contextGin.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "delete_failed"})
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"deleted": fileName})
	})
}
