package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"go-garage/internal/core/auth"
	"go-garage/internal/domain"
	"go-garage/internal/service"
	httpez "go-garage/internal/transport/http/ez"
	mdw "go-garage/internal/transport/http/middleware"
)

type AuthHandler struct {
	svc   *service.AuthService
	jwter *auth.JWTer
	// 每 IP 限流，防爆破
	rps   rate.Limit
	burst int
}

func NewAuthHandler(svc *service.AuthService, jwter *auth.JWTer) *AuthHandler {
	return &AuthHandler{svc: svc, jwter: jwter, rps: 5, burst: 20}
}

func (h *AuthHandler) Priority() int { return 10 }

type registerIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// loginIn 不校验邮箱格式：格式不对也只是凭据错误
type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionOut struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/auth", mdw.RateLimitPerIP(h.rps, h.burst))
	public := httpez.New(g)

	httpez.RegisterAction(public, httpez.Action[registerIn, sessionOut]{
		Method:  http.MethodPost,
		Path:    "/register",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Message: "User registered successfully",
		Handler: func(c *gin.Context, in *registerIn) (sessionOut, error) {
			u, tok, err := h.svc.Register(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			return sessionOut{User: u, Token: tok}, nil
		},
	})

	httpez.RegisterAction(public, httpez.Action[loginIn, sessionOut]{
		Method:  http.MethodPost,
		Path:    "/login",
		Binder:  httpez.BindJSON,
		Message: "Login successful",
		Handler: func(c *gin.Context, in *loginIn) (sessionOut, error) {
			u, tok, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			return sessionOut{User: u, Token: tok}, nil
		},
	})

	// /me 必须挂在带 AuthJWT 的分组
	private := httpez.New(g.Group("", mdw.AuthJWT(h.jwter)))
	httpez.RegisterAction(private, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Me(c.Request.Context(), httpez.UserID(c))
		},
	})
}
