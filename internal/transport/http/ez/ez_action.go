package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-garage/internal/domain"
	mdw "go-garage/internal/transport/http/middleware"
	resp "go-garage/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // multipart/form-data 或 urlencoded
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 传输层自身的错误（绑定失败等）；业务错误走 domain.Error
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }

const internalMsg = "internal server error"

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // GET | POST | PUT | PATCH | DELETE
	Path    string
	Binder  Binder
	Auth    bool   // 要求 userId（分组需挂 AuthJWT）
	Status  int    // 成功状态码，默认 200
	Message string // 成功提示，默认 "Success"
	Handler func(c *gin.Context, in *I) (O, error)
}

// UserID 当前登录用户
func UserID(c *gin.Context) string { return c.GetString(mdw.KeyUserID) }

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		if a.Auth && UserID(c) == "" {
			c.JSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "unauthorized"))
			return
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		default:
		}
		if bindErr != nil {
			writeErr(c, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(status, resp.Msg(a.Message, out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func bindError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &AErr{Code: http.StatusRequestEntityTooLarge, Err: err}
	}
	return &AErr{Code: http.StatusBadRequest, Msg: err.Error(), Err: err}
}

// StatusOf 统一错误映射
func StatusOf(err error) int {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(c *gin.Context, err error) {
	code := StatusOf(err)
	msg := ""
	switch {
	case code >= http.StatusInternalServerError:
		// 原因只进日志，不回给客户端
		msg = internalMsg
		_ = c.Error(err)
	case code == http.StatusRequestEntityTooLarge:
		msg = "request body too large"
	default:
		var de *domain.Error
		if errors.As(err, &de) {
			msg = de.Msg
		} else {
			msg = err.Error()
		}
	}
	c.JSON(code, resp.Error(code, msg))
}
