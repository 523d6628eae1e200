package handler

import (
	"net/http"
	"time"

	"invoicing/internal/middleware"
	"invoicing/internal/service"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   service.AuthService
	requireAuth   gin.HandlerFunc
	cookieMaxAge  int
	secureCookies bool
}

// NewAuthHandler sets up the routing dependencies for account and session endpoints
func NewAuthHandler(authService service.AuthService, requireAuth gin.HandlerFunc, ttl time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		requireAuth:   requireAuth,
		cookieMaxAge:  int(ttl.Seconds()),
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
		auth.POST("/signout", h.requireAuth, h.SignOut)
		auth.GET("/me", h.requireAuth, h.Me)
	}
}

// SignUp registers a new agent account
// @Summary      Sign up
// @Description  Creates an agent account. The director role cannot be requested.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignUpRequest  true  "Sign-up payload"
// @Success      201      {object}  response.Response{data=service.AgentResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req service.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	agent, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, agent))
}

// SignIn authenticates by email and password and starts a session
// @Summary      Sign in
// @Description  Verifies credentials, starts a session, sets the access_token cookie and returns the token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignInRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.SignInResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req service.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload")
		return
	}

	res, err := h.authService.SignIn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, res.Token, h.cookieMaxAge, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// SignOut ends the current session
// @Summary      Sign out
// @Description  Deletes the session server-side so its token stops working, and clears the cookie
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /api/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), sess); err != nil {
		writeError(c, err)
		return
	}

	middleware.ClearTokenCookie(c, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Signed out"}))
}

// Me returns the signed-in account
// @Summary      Current account
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.AgentResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	agent, err := h.authService.Me(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}
