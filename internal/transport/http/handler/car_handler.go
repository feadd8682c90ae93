package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-garage/internal/core/auth"
	"go-garage/internal/domain"
	"go-garage/internal/service"
	httpez "go-garage/internal/transport/http/ez"
	mdw "go-garage/internal/transport/http/middleware"
)

type CarHandler struct {
	svc   *service.CarService
	jwter *auth.JWTer
}

func NewCarHandler(svc *service.CarService, jwter *auth.JWTer) *CarHandler {
	return &CarHandler{svc: svc, jwter: jwter}
}

func (h *CarHandler) Priority() int { return 20 }

// carForm multipart 表单；images 也接受 images[] 写法
type carForm struct {
	Title        string                  `form:"title"`
	Description  string                  `form:"description"`
	Tags         string                  `form:"tags"`
	Images       []*multipart.FileHeader `form:"images"`
	RemoveImages string                  `form:"removeImages"`
}

type listQ struct {
	Search string `form:"search"`
}

func (h *CarHandler) MountAPI(api *gin.RouterGroup) {
	ez := httpez.New(api.Group("/cars", mdw.AuthJWT(h.jwter)))

	httpez.RegisterAction(ez, httpez.Action[carForm, *domain.Car]{
		Method:  http.MethodPost,
		Path:    "",
		Binder:  httpez.BindForm,
		Auth:    true,
		Status:  http.StatusCreated,
		Message: "Car created successfully",
		Handler: func(c *gin.Context, in *carForm) (*domain.Car, error) {
			return h.svc.Create(c.Request.Context(), httpez.UserID(c), service.CreateCarInput{
				Title:       in.Title,
				Description: in.Description,
				Tags:        in.Tags,
				Files:       uploads(c, in.Images),
			})
		},
	})

	httpez.RegisterAction(ez, httpez.Action[listQ, []domain.Car]{
		Method: http.MethodGet,
		Path:   "",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listQ) ([]domain.Car, error) {
			cars, err := h.svc.List(c.Request.Context(), httpez.UserID(c), in.Search)
			if err != nil {
				return nil, err
			}
			if cars == nil {
				cars = []domain.Car{}
			}
			return cars, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.Car]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Car, error) {
			return h.svc.Get(c.Request.Context(), httpez.UserID(c), c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[carForm, *domain.Car]{
		Method:  http.MethodPatch,
		Path:    "/:id",
		Binder:  httpez.BindForm,
		Auth:    true,
		Message: "Car updated successfully",
		Handler: func(c *gin.Context, in *carForm) (*domain.Car, error) {
			return h.svc.Update(c.Request.Context(), httpez.UserID(c), c.Param("id"), service.UpdateCarInput{
				Title:         in.Title,
				Description:   in.Description,
				Tags:          in.Tags,
				Files:         uploads(c, in.Images),
				ReplaceImages: strings.EqualFold(strings.TrimSpace(in.RemoveImages), "true"),
			})
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, any]{
		Method:  http.MethodDelete,
		Path:    "/:id",
		Binder:  httpez.BindNone,
		Auth:    true,
		Message: "Car deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			return nil, h.svc.Delete(c.Request.Context(), httpez.UserID(c), c.Param("id"))
		},
	})
}

// uploads 把表单文件转成 domain.Upload，保持提交顺序
func uploads(c *gin.Context, files []*multipart.FileHeader) []domain.Upload {
	if len(files) == 0 && c.Request.MultipartForm != nil {
		files = c.Request.MultipartForm.File["images[]"]
	}
	out := make([]domain.Upload, 0, len(files))
	for _, fh := range files {
		fh := fh
		out = append(out, domain.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}
