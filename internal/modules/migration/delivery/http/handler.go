package handler

import (
	"net/http"

	migrationService "anoa.com/blogapp/internal/modules/migration/service"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

// MigrationHandler exposes the one-off legacy user migration to admins.
type MigrationHandler struct {
	service migrationService.MigrationService
}

func NewMigrationHandler(service migrationService.MigrationService) *MigrationHandler {
	return &MigrationHandler{service: service}
}

func (h *MigrationHandler) MigrateUsers(c *gin.Context) {
	result, err := h.service.MigrateUsers(c.Request.Context())
	if err != nil {
		if migrationService.IsInProgress(err) {
			response.Error(c, err)
			return
		}
		logger.Log.WithError(err).Error("user migration failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Migration failed with critical error",
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MigrationHandler) MigrationStatus(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to get migration status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve migration status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *MigrationHandler) RollbackMigration(c *gin.Context) {
	result, err := h.service.Rollback(c.Request.Context())
	if err != nil {
		if migrationService.IsInProgress(err) {
			response.Error(c, err)
			return
		}
		logger.Log.WithError(err).Error("user migration rollback failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Rollback failed",
		})
		return
	}
	c.JSON(http.StatusOK, result)
}
