package docstore

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tyemirov/picdash/internal/identity"
)

// MountDocumentRoutes registers the session-gated document endpoints:
//
//	GET /api/documents/:collection/:id
//	PUT /api/documents/:collection/:id?merge=true|false
//
// A session may only touch the document keyed by its own user id.
func MountDocumentRoutes(router gin.IRouter, configuration identity.ServerConfig, store Store, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	group := router.Group("/api/documents", identity.RequireSession(configuration))

	group.GET("/:collection/:id", func(contextGin *gin.Context) {
		claims, ok := identity.SessionClaimsFrom(contextGin)
		if !ok {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		documentID := contextGin.Param("id")
		if documentID != claims.UserID {
			contextGin.AbortWithStatus(http.StatusForbidden)
			return
		}

		document, found, getErr := store.Get(contextGin, contextGin.Param("collection"), documentID)
		if getErr != nil {
			logger.Error("document read failed",
				zap.String("code", "documents.get.store_failed"),
				zap.String("collection", contextGin.Param("collection")),
				zap.Error(getErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !found {
			contextGin.AbortWithStatus(http.StatusNotFound)
			return
		}
		contextGin.JSON(http.StatusOK, document)
	})

	group.PUT("/:collection/:id", func(contextGin *gin.Context) {
		claims, ok := identity.SessionClaimsFrom(contextGin)
		if !ok {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		documentID := contextGin.Param("id")
		if documentID != claims.UserID {
			contextGin.AbortWithStatus(http.StatusForbidden)
			return
		}

		merge := true
		if rawMerge := contextGin.Query("merge"); rawMerge != "" {
			parsed, parseErr := strconv.ParseBool(rawMerge)
			if parseErr != nil {
				contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_merge"})
				return
			}
			merge = parsed
		}

		var fields Document
		if err := contextGin.BindJSON(&fields); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}

		if putErr := store.Put(contextGin, contextGin.Param("collection"), documentID, fields, merge); putErr != nil {
			logger.Error("document write failed",
				zap.String("code", "documents.put.store_failed"),
				zap.String("collection", contextGin.Param("collection")),
				zap.Error(putErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		contextGin.Status(http.StatusNoContent)
	})
}
