package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-energy-kpi/httpx"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
)

// Invalidator drops cached authorization data of a user.
type Invalidator interface {
	InvalidateUser(userID uint)
}

// AdminUserHandler handles profile and process assignment of users.
type AdminUserHandler struct {
	DB    *gorm.DB
	Cache Invalidator // invalidated on every change
}

// NewAdminUserHandler creates a new admin user handler.
func NewAdminUserHandler(db *gorm.DB, cache Invalidator) *AdminUserHandler {
	return &AdminUserHandler{DB: db, Cache: cache}
}

// List returns all users with their profile and assigned processes, plus
// the available profiles.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.WithContext(r.Context()).Preload("Profile").Preload("Processes").Order("id").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Order("name").Find(&profiles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":    users,
		"profiles": profiles,
	})
}

type assignProfileRequest struct {
	ProfileID *uint `json:"profile_id"`
}

// AssignProfile handles POST /admin/users/{id}/profile. A null profile_id
// removes the profile.
func (h *AdminUserHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}
	var req assignProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if req.ProfileID != nil {
		var profile models.Profile
		if err := h.DB.WithContext(ctx).First(&profile, *req.ProfileID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
	}

	res := h.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("profile_id", req.ProfileID)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
		return
	}

	h.invalidate(userID)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"profile_id": req.ProfileID,
	})
}

type assignProcessesRequest struct {
	Processes []string `json:"processes"`
}

var errUnknownProcess = errors.New("unknown process")

// AssignProcesses handles PUT /admin/users/{id}/processes. The list replaces
// the processes the user validates.
func (h *AdminUserHandler) AssignProcesses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}
	var req assignProcessesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	codes := make([]string, 0, len(req.Processes))
	seen := make(map[string]bool, len(req.Processes))
	for _, c := range req.Processes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}

	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if len(codes) > 0 {
			var n int64
			if err := tx.Model(&models.Processus{}).Where("code IN ?", codes).Count(&n).Error; err != nil {
				return err
			}
			if int(n) != len(codes) {
				return errUnknownProcess
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ProcessAssignment{}).Error; err != nil {
			return err
		}
		for _, c := range codes {
			if err := tx.Create(&models.ProcessAssignment{UserID: userID, ProcessCode: c}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
		return
	case errors.Is(err, errUnknownProcess):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "unknown_process", nil)
		return
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	h.invalidate(userID)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"processes": codes,
	})
}

func (h *AdminUserHandler) invalidate(userID uint) {
	if h.Cache != nil {
		h.Cache.InvalidateUser(userID)
	}
}
