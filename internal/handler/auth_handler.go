package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperfour/tandem/internal/auth"
	"github.com/paperfour/tandem/internal/middleware"
	"github.com/paperfour/tandem/internal/store"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	StudentID    string `json:"student_id"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields required"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	st, err := h.svc.CreateStudent(c.Request.Context(), req.Name, req.Email, hash)
	if err != nil {
		// unique violation = dup email, but don't reveal that
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "registration failed"})
			return
		}
		h.writeError(c, err)
		return
	}

	resp, err := h.issueTokens(c, st.ID, st.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	st, err := h.svc.StudentByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(st.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	resp, err := h.issueTokens(c, st.ID, st.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	ctx := c.Request.Context()
	rt, err := h.store.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	// rotate: a stolen old token dies here
	rawRefresh, newHash, err := auth.GenerateRefreshToken()
	if err != nil {
		h.writeError(c, err)
		return
	}
	newID := uuid.New().String()
	if err := h.store.RotateRefreshToken(ctx, rt.ID, newID, rt.StudentID, newHash, time.Now().Add(refreshTokenTTL)); err != nil {
		h.writeError(c, err)
		return
	}

	access, err := auth.MakeToken(rt.StudentID, h.secret)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		StudentID:    rt.StudentID,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		TokenType:    "bearer",
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	})
}

func (h *Handler) Me(c *gin.Context) {
	st, err := h.svc.Student(c.Request.Context(), middleware.StudentID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentJSON(st))
}

func (h *Handler) issueTokens(c *gin.Context, studentID, name string) (tokenResponse, error) {
	access, err := auth.MakeToken(studentID, h.secret)
	if err != nil {
		return tokenResponse{}, err
	}
	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return tokenResponse{}, err
	}
	if _, err := h.store.CreateRefreshToken(c.Request.Context(), studentID, refreshHash, time.Now().Add(refreshTokenTTL)); err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		StudentID:    studentID,
		Name:         name,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		TokenType:    "bearer",
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}
