package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dubclub-auth/internal/repository"
)

// IdentityHandler expone el registro sombra de la sesion actual.
type IdentityHandler struct {
	logger *zap.Logger
	groups repository.GroupRepository
}

func NewIdentityHandler(logger *zap.Logger, groups repository.GroupRepository) *IdentityHandler {
	return &IdentityHandler{logger: logger, groups: groups}
}

// Me maneja GET /me: los campos derivados del perfil cacheado mas la
// membresia de grupos vigente.
func (h *IdentityHandler) Me(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no identity"})
		return
	}

	groups, err := h.groups.ListForIdentity(c.Request.Context(), identity.ID)
	if err != nil {
		h.logger.Error("group list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load groups"})
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, g := range groups {
		groupNames = append(groupNames, g.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           identity.ID,
		"username":     identity.Username,
		"first_name":   identity.FirstName(),
		"last_name":    identity.LastName(),
		"email":        identity.Email(),
		"is_active":    identity.IsActive(),
		"is_superuser": identity.IsSuperuser(),
		"is_staff":     identity.IsStaff(),
		"last_login":   identity.LastLogin(),
		"date_joined":  identity.DateJoined(),
		"loaded":       identity.Loaded(),
		"groups":       groupNames,
	})
}
