package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/aeroplan/collab/internal/domain"
)

// UserAccounts is the slice of the datastore the auth surface needs.
type UserAccounts interface {
	CreateUser(ctx context.Context, screenname, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenIssuer mints the bearer token handed back on login.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

type AuthHandlers struct {
	Users  UserAccounts
	Issuer TokenIssuer
}

type registerRequest struct {
	Screenname string `json:"screenname"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if _, err := domain.NewUser(req.Screenname, req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failure"})
		return
	}
	user, err := h.Users.CreateUser(c.Request.Context(), req.Screenname, req.Email, string(hash))
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("email", req.Email).Msg("register failed")
		c.JSON(http.StatusConflict, gin.H{"error": "could not create user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	user, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}
	token, err := h.Issuer.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
