package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// 单请求处理超时（中间件层）
	HandlerTimeoutSec int
	MaxBodyMB         int64
	RateRPS           float64
	RateBurst         int
	MaxInFlight       int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
	// 前端构建产物目录，为空则不挂载
	StaticDir string
}

type Log struct {
	Level string
	JSON  bool
	// 文件切割（可选）
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// /me 缓存时长（秒）
	TTLSec int `mapstructure:"ttlsec"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type S3 struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	Prefix        string
	PublicBaseURL string
	PathStyle     bool
}

type Storage struct {
	Driver     string // local / s3 / memory
	Dir        string // local 根目录
	PublicPath string // local 静态挂载前缀，如 /uploads
	S3         S3
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Storage Storage
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "go-garage")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 60)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.handlertimeoutsec", 30)
	v.SetDefault("app.http.maxbodymb", 64)
	v.SetDefault("app.http.raterps", 200)
	v.SetDefault("app.http.rateburst", 400)
	v.SetDefault("app.http.maxinflight", 300)
	v.SetDefault("app.staticdir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)
	v.SetDefault("log.file", "")
	v.SetDefault("log.compress", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "go-garage")
	v.SetDefault("jwt.accesstokenttlmin", 7*24*60) // 7 天

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "garage.db")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlsec", 300)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.publicpath", "/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "cars")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.accesskey", "")
	v.SetDefault("storage.s3.secretkey", "")
	v.SetDefault("storage.s3.baseendpoint", "")
	v.SetDefault("storage.s3.publicbaseurl", "")
	v.SetDefault("storage.s3.pathstyle", true)
}

// Load 读取 yaml + APP_ 前缀环境变量；文件缺失时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required (APP_JWT_SECRET)")
	}
	return &c, nil
}
