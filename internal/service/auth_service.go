package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-garage/internal/core/auth"
	"go-garage/internal/core/cache"
	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

type AuthService struct {
	users    domain.UserRepository
	jwter    *auth.JWTer
	cache    *cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewAuthService c 可为 nil（不启用 /me 缓存）
func NewAuthService(users domain.UserRepository, jwter *auth.JWTer, c *cache.Cache, cacheTTL time.Duration, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, jwter: jwter, cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", domain.Validation("email and password are required")
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.Persistence("lookup user failed", err)
	}
	if existing != nil {
		return nil, "", domain.Validation("email already exists")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", domain.Persistence("hash password failed", err)
	}
	u := &domain.User{ID: utils.NewID(), Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册：唯一索引兜底
		if isDupKey(err) {
			return nil, "", domain.Validation("email already exists")
		}
		return nil, "", domain.Persistence("create user failed", err)
	}

	tok, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, tok, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", domain.Persistence("lookup user failed", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, "", domain.Unauthorized("invalid credentials")
	}
	tok, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Me 用户资料不可变，命中缓存无需失效
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := cache.GetOrLoadJSON(s.cache, ctx, "user:"+userID, s.cacheTTL, func(ctx context.Context) (*domain.User, error) {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, domain.Persistence("load user failed", err)
		}
		if u == nil {
			return nil, domain.NotFound("user not found")
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *AuthService) issue(u *domain.User) (string, error) {
	tok, err := s.jwter.Issue(u.ID)
	if err != nil || tok == "" {
		return "", domain.Persistence("issue token failed", err)
	}
	return tok, nil
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，各驱动报错文本不同
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
