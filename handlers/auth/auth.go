package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/auth"
	"github.com/schoolpulse/api/utils/middleware"
	"github.com/schoolpulse/api/utils/response"
)

// AuthHandler handles login, token lifecycle and password changes.
type AuthHandler struct {
	db             *gorm.DB
	jwtManager     *auth.JWTManager
	blacklist      *auth.BlacklistService
	bruteForce     *middleware.BruteForceProtection
	accountService *services.AccountService
}

func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, blacklist *auth.BlacklistService,
	bruteForce *middleware.BruteForceProtection, accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{
		db:             db,
		jwtManager:     jwtManager,
		blacklist:      blacklist,
		bruteForce:     bruteForce,
		accountService: accountService,
	}
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// UserResponse is the user shape returned by auth endpoints.
type UserResponse struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Contact   string     `json:"contact"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Contact:   user.Contact,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// Login handles user login by username and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("name = ?", req.Username).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		if h.bruteForce != nil {
			_ = h.bruteForce.RecordFailedAttempt(c.Context(), ip)
		}
		return response.Unauthorized(c, "Invalid username or password")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForce != nil {
			_ = h.bruteForce.RecordFailedAttempt(c.Context(), ip)
		}
		return response.Unauthorized(c, "Invalid username or password")
	}

	// Clear failed attempts on successful login
	if h.bruteForce != nil {
		_ = h.bruteForce.RecordSuccessfulAttempt(c.Context(), ip)
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := LoginResponse{
		User:         toUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessExpiry().Seconds()),
	}
	return response.Success(c, res)
}

// Me handles GET /auth/me for the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	user, err := h.accountService.GetUser(c.Context(), userID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, user)
}

// Logout revokes the presented access token by blacklisting its JTI.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	err := h.blacklist.RevokeToken(c.Context(), claims.ID, claims.UserID,
		claims.ExpiresAt.Time, "logout")
	if err != nil {
		return response.InternalServerError(c, "Failed to revoke token")
	}
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a valid refresh token for a new token pair. The used
// refresh token is blacklisted so it cannot be replayed.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Token is not a refresh token")
	}

	revoked, err := h.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to verify token")
	}
	if revoked {
		return response.Unauthorized(c, "Refresh token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User no longer exists")
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	// One-time use: retire the refresh token that was just exchanged.
	_ = h.blacklist.RevokeToken(c.Context(), claims.ID, user.ID, claims.ExpiresAt.Time, "refresh rotation")

	res := LoginResponse{
		User:         toUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessExpiry().Seconds()),
	}
	return response.Success(c, res)
}

// ChangePasswordRequest carries the current and new password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword verifies the current password before replacing it.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Current and new password are required")
	}

	err := h.accountService.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Password changed successfully", nil)
}
