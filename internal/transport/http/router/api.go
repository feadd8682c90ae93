package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-garage/internal/core/auth"
	"go-garage/internal/core/config"
	"go-garage/internal/core/server"
	"go-garage/internal/service"
	"go-garage/internal/transport/http/handler"
	mdw "go-garage/internal/transport/http/middleware"
	resp "go-garage/internal/transport/http/response"
)

type Deps struct {
	Config *config.Config
	JWT    *auth.JWTer
	Auth   *service.AuthService
	Cars   *service.CarService
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	h := d.Config.App.HTTP
	r := server.NewEngine(l)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(h.RateRPS), h.RateBurst),
		mdw.ConcurrencyLimit(h.MaxInFlight),
		mdw.MaxBodyBytes(h.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(h.HandlerTimeoutSec)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1})) })
	r.GET("/metrics", mdw.MetricsHandler())

	// 本地存储的图片直接静态托管
	st := d.Config.Storage
	if st.Driver == "" || st.Driver == "local" {
		pub := st.PublicPath
		if pub == "" {
			pub = "/uploads"
		}
		r.Group(pub, hideDotfiles).Static("/", st.Dir)
	}

	api := r.Group("/api")
	Mount(api,
		handler.NewAuthHandler(d.Auth, d.JWT),
		handler.NewCarHandler(d.Cars, d.JWT),
	)

	if dir := d.Config.App.StaticDir; dir != "" {
		mountStatic(r, dir)
	} else {
		r.NoRoute(notFound)
	}
	return r
}

// mountStatic 前端构建产物：文件直接返回，其余非 /api 路径回落到 index.html
func mountStatic(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || strings.HasPrefix(p, "/api/") {
			notFound(c)
			return
		}
		f := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+p)))
		if fi, err := os.Stat(f); err == nil && !fi.IsDir() {
			c.File(f)
			return
		}
		c.File(index)
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, resp.Error(http.StatusNotFound, "route not found"))
}

// hideDotfiles 隐藏文件和目录（上传中的临时文件）一律 404
func hideDotfiles(c *gin.Context) {
	for _, seg := range strings.Split(c.Param("filepath"), "/") {
		if strings.HasPrefix(seg, ".") {
			c.AbortWithStatusJSON(http.StatusNotFound, resp.Error(http.StatusNotFound, "route not found"))
			return
		}
	}
	c.Next()
}
