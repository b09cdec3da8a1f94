package transport

import (
	"net/http"

	"grocery-market/internal/domain"
	"grocery-market/internal/middleware"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateUserRequest represents the user creation payload
type CreateUserRequest struct {
	Role     string  `json:"role" validate:"required,oneof=customer seller"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	FullName string  `json:"full_name" validate:"required,min=2,max=255"`
	Phone    string  `json:"phone" validate:"required,min=8,max=20"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}

// UpdateUserRequest represents a partial user update. Role cannot be changed.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,min=8,max=20"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}", h.UpdateUser)
	})
}

// CreateUser handles account creation
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User creation validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), service.CreateUserInput{
		Role:     domain.Role(req.Role),
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create user")
		return
	}

	h.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	middleware.RespondWithJSON(w, http.StatusCreated, toUserResponse(user))
}

// GetUser handles fetching a single user
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toUserResponse(user))
}

// ListUsers handles listing users with an optional role filter
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	filter := repository.UserFilter{Pagination: page}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			respondWithQueryError(w, &queryError{field: "role", message: "Must be one of: customer, seller"})
			return
		}
		filter.Role = &role
	}

	users, total, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list users")
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}

	middleware.RespondWithJSON(w, http.StatusOK, newPagedResponse(items, page, total))
}

// UpdateUser handles partial user updates
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User update validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, service.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toUserResponse(user))
}
