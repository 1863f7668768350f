package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/middleware"
)

// RegisterRequest represents the payload for creating a new account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// IDResponse returns a newly created resource ID.
type IDResponse struct {
	ID uint `json:"id"`
}

// UserHandler handles HTTP requests for user resources.
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler registers user endpoints. Registration goes on the public
// group, the "me" endpoint behind the bearer middleware.
func NewUserHandler(public, authed *gin.RouterGroup, service UserService, logger *zap.Logger) *UserHandler {
	h := &UserHandler{service: service, logger: logger}
	public.POST("/users", h.Register)
	authed.GET("/users/me", h.ReadCurrentUser)
	return h
}

// Register godoc
// @Summary      Register
// @Description  Create a new account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      RegisterRequest  true  "Registration payload"
// @Success      201      {object}  IDResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or password format"})
		return
	}
	u, err := h.service.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, IDResponse{ID: u.ID})
	case errors.Is(err, ErrInvalidEmailFormat),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordNotAlphanumeric),
		errors.Is(err, ErrPasswordNoSpecialCharacter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	default:
		h.logger.Error("service.Register failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
	}
}

// ReadCurrentUser godoc
// @Summary      Get current user
// @Description  Fetch the record for the authenticated user
// @Tags         users
// @Produce      json
// @Success      200 {object} User
// @Failure      401 {object} map[string]string
// @Router       /users/me [get]
func (h *UserHandler) ReadCurrentUser(c *gin.Context) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	u, err := h.service.ReadUserByID(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, u)
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	default:
		h.logger.Error("service.ReadUserByID failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch user"})
	}
}
