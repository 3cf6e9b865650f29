package adminauth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veloria/admin-api/internal/models"
	"github.com/veloria/admin-api/internal/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/verify-2fa", h.VerifyTwoFactor)
	r.Post("/2fa/setup", h.StartTwoFactorSetup)
	r.Post("/2fa/confirm", h.ConfirmTwoFactorSetup)
	r.Post("/2fa/disable", h.DisableTwoFactor)

	return r
}

// InternalRoutes serves the admin-status lookup for sibling services.
// Access requires the shared internal token; it is not reachable
// through the public mount.
func (h *Handler) InternalRoutes(sharedToken string) chi.Router {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Internal-Token")
			if sharedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sharedToken)) != 1 {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/admin-status/{id}", h.AdminStatus)

	return r
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// identityResponse is the authenticated success shape shared by login
// and verify.
type identityResponse struct {
	Success          bool             `json:"success"`
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	Role             models.AdminRole `json:"role"`
	TwoFactorEnabled bool             `json:"twoFactorEnabled"`
}

// challengeResponse tells the client a second factor is required.
// success is false: the login is not complete yet.
type challengeResponse struct {
	Success     bool   `json:"success"`
	RequiresOtp bool   `json:"requiresOtp"`
	ChallengeID string `json:"challengeId"`
}

func newIdentityResponse(id *models.AdminIdentity) identityResponse {
	return identityResponse{
		Success:          true,
		ID:               id.ID,
		Email:            id.Email,
		Name:             id.Name,
		Role:             id.Role,
		TwoFactorEnabled: id.TwoFactorEnabled,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	if result.RequiresOTP {
		utils.RespondJSON(w, http.StatusOK, challengeResponse{
			RequiresOtp: true,
			ChallengeID: result.ChallengeID,
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, newIdentityResponse(result.Account))
}

type verifyRequest struct {
	ChallengeID string `json:"challengeId" validate:"required"`
	Code        string `json:"code" validate:"required,authcode"`
}

func (h *Handler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	identity, err := h.service.VerifyTwoFactor(r.Context(), req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrChallengeInvalid):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "CHALLENGE_INVALID", "Challenge expired or invalid")
		case errors.Is(err, ErrCodeInvalid):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CODE", "Invalid authentication code")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to verify second factor")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, newIdentityResponse(identity))
}

type setupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) StartTwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	enrollment, err := h.service.StartEnrollment(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to start two-factor setup")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, enrollment)
}

type confirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required,authcode"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) ConfirmTwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	if err := h.service.ConfirmEnrollment(r.Context(), req.Email, req.Password, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		case errors.Is(err, ErrSetupNotPending):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "SETUP_NOT_PENDING", "No pending setup found")
		case errors.Is(err, ErrCodeInvalid):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "INVALID_CODE", "Verification code is invalid")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to confirm two-factor setup")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	if err := h.service.DisableTwoFactor(r.Context(), req.Email, req.Password, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		case errors.Is(err, ErrNotEnabled):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "NOT_ENABLED", "Two-factor authentication is not enabled")
		case errors.Is(err, ErrCodeInvalid):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "INVALID_CODE", "Invalid authentication code")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to disable two-factor authentication")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	isAdmin, err := h.service.IsAdminAccount(r.Context(), id)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Failed to look up account")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"isAdmin": isAdmin})
}
