package handler

import (
	"net/http"

	"github.com/ithalat-ops/backoffice-api/internal/auth"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// MeResponse describes the authenticated caller
type MeResponse struct {
	Subject  string        `json:"subject"`
	Name     string        `json:"name"`
	Role     auth.Role     `json:"role"`
	AuthType string        `json:"authType"`
	Modules  []auth.Module `json:"modules"`
}

// Me godoc
// @Summary Get current caller
// @Description Returns the resolved role and the modules it can access
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{
		Subject:  user.Subject,
		Name:     user.Name,
		Role:     user.Role,
		AuthType: user.AuthType,
		Modules:  user.Modules(),
	})
}
