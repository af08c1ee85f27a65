package configs

import (
	"flag"
	"os"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
)

// service modes, the same values gin accepts
const (
	ModeDebug   string = "debug"
	ModeRelease string = "release"
	ModeTest    string = "test"
)

const (
	BackendMemory string = "memory"
	BackendRedis  string = "redis"
	BackendMongo  string = "mongo"
)

type Config struct {
	App struct {
		ServiceMode      string `env:"STOREFRONT_SERVICE_MODE"`
		ReturnType       string `env:"STOREFRONT_RETURN_TYPE"`
		FlowTTL          int    `env:"STOREFRONT_RETURN_FLOW_TTL"`
		ShutdownTimeout  int    `env:"STOREFRONT_SHUTDOWN_TIMEOUT"`
		CorsAllowOrigins string `env:"STOREFRONT_CORS_ALLOW_ORIGINS"`
		HttpReadTimeout  int    `env:"STOREFRONT_HTTP_READ_TIMEOUT"`
		HttpWriteTimeout int    `env:"STOREFRONT_HTTP_WRITE_TIMEOUT"`
	}

	HTTPServer struct {
		Address string `env:"STOREFRONT_HTTP_ADDRESS"`
		Port    int    `env:"STOREFRONT_HTTP_PORT"`
	}

	GRPCServer struct {
		Address string `env:"STOREFRONT_GRPC_ADDRESS"`
		Port    int    `env:"STOREFRONT_GRPC_PORT"`
	}

	StorefrontAPI struct {
		BaseURL     string `env:"STOREFRONT_API_BASE_URL"`
		Timeout     int    `env:"STOREFRONT_API_TIMEOUT"`
		MockEnabled bool   `env:"STOREFRONT_API_MOCK_ENABLED"`
	}

	Wishlist struct {
		Backend       string `env:"STOREFRONT_WISHLIST_BACKEND"`
		Key           string `env:"STOREFRONT_WISHLIST_KEY"`
		ChannelPrefix string `env:"STOREFRONT_WISHLIST_CHANNEL_PREFIX"`
		IdleTTL       int    `env:"STOREFRONT_WISHLIST_IDLE_TTL"`
		MaxStores     int    `env:"STOREFRONT_WISHLIST_MAX_STORES"`
	}

	Redis struct {
		Address  string `env:"STOREFRONT_REDIS_ADDRESS"`
		Password string `env:"STOREFRONT_REDIS_PASSWORD"`
		DB       int    `env:"STOREFRONT_REDIS_DB"`
	}

	Mongo struct {
		User              string `env:"STOREFRONT_MONGO_USER"`
		Pass              string `env:"STOREFRONT_MONGO_PASS"`
		Host              string `env:"STOREFRONT_MONGO_HOST"`
		Port              int    `env:"STOREFRONT_MONGO_PORT"`
		Database          string `env:"STOREFRONT_MONGO_DB_NAME"`
		Collection        string `env:"STOREFRONT_MONGO_COLLECTION_NAME"`
		ConnectionTimeout int    `env:"STOREFRONT_MONGO_CONN_TIMEOUT"`
		ReadTimeout       int    `env:"STOREFRONT_MONGO_READ_TIMEOUT"`
		WriteTimeout      int    `env:"STOREFRONT_MONGO_WRITE_TIMEOUT"`
		MaxConnIdleTime   int    `env:"STOREFRONT_MONGO_MAX_CONN_IDLE_TIME"`
		MaxPoolSize       int    `env:"STOREFRONT_MONGO_MAX_POOL_SIZE"`
		MinPoolSize       int    `env:"STOREFRONT_MONGO_MIN_POOL_SIZE"`
		WriteConcernW     string `env:"STOREFRONT_MONGO_WRITE_CONCERN_W"`
		WriteConcernJ     bool   `env:"STOREFRONT_MONGO_WRITE_CONCERN_J"`
		RetryWrite        bool   `env:"STOREFRONT_MONGO_RETRY_WRITE"`
	}
}

func LoadConfig(path string) (*Config, error) {
	var config = &Config{}
	log := applog.GLog.Logger
	if log == nil {
		log = applog.NewNopLogger()
	}

	currentPath, err := os.Getwd()
	if err != nil {
		log.Error("get current working directory failed", "fn", "LoadConfig", "error", err)
	}

	if os.Getenv("APP_ENV") == "dev" {
		if path != "" {
			if err := godotenv.Load(path); err != nil {
				log.Error("Error loading .env file", "fn", "LoadConfig", "wd", currentPath, "path", path, "error", err)
			}
		} else if flag.Lookup("test.v") != nil {
			// test mode
			if err := godotenv.Load("../testdata/.env"); err != nil {
				log.Error("Error loading testdata .env file", "fn", "LoadConfig", "error", err)
			}
		} else {
			if err := godotenv.Load("./.env"); err != nil {
				log.Error("Error loading .env file", "fn", "LoadConfig", "error", err)
			}
		}
	}

	// Get environment variables for Config
	if _, err = env.UnmarshalFromEnviron(config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config from environment failed")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate fills the defaults of unset values and rejects settings the
// process cannot start with
func (config *Config) Validate() error {
	switch config.App.ServiceMode {
	case "":
		config.App.ServiceMode = ModeRelease
	case ModeDebug, ModeRelease, ModeTest:
	default:
		return errors.Errorf("unknown service mode %q", config.App.ServiceMode)
	}
	if config.App.FlowTTL <= 0 {
		config.App.FlowTTL = 1800
	}
	if config.App.ShutdownTimeout <= 0 {
		config.App.ShutdownTimeout = 10
	}
	if config.HTTPServer.Port == 0 {
		config.HTTPServer.Port = 8080
	}
	if config.GRPCServer.Port == 0 {
		config.GRPCServer.Port = 9090
	}
	if config.StorefrontAPI.Timeout <= 0 {
		config.StorefrontAPI.Timeout = 15
	}
	if !config.StorefrontAPI.MockEnabled && config.StorefrontAPI.BaseURL == "" {
		return errors.New("STOREFRONT_API_BASE_URL is required unless the storefront mock is enabled")
	}

	config.Wishlist.Backend = strings.ToLower(strings.TrimSpace(config.Wishlist.Backend))
	switch config.Wishlist.Backend {
	case "":
		config.Wishlist.Backend = BackendMemory
	case BackendMemory:
	case BackendRedis:
		if config.Redis.Address == "" {
			return errors.New("STOREFRONT_REDIS_ADDRESS is required by the redis wishlist backend")
		}
	case BackendMongo:
		if config.Mongo.Host == "" || config.Mongo.Database == "" || config.Mongo.Collection == "" {
			return errors.New("mongo host, database and collection are required by the mongo wishlist backend")
		}
	default:
		return errors.Errorf("unknown wishlist backend %q", config.Wishlist.Backend)
	}
	if config.Wishlist.ChannelPrefix == "" {
		config.Wishlist.ChannelPrefix = "storefront"
	}
	if config.Wishlist.IdleTTL <= 0 {
		config.Wishlist.IdleTTL = 1800
	}
	if config.Wishlist.MaxStores <= 0 {
		config.Wishlist.MaxStores = 10000
	}
	if config.Mongo.Port == 0 {
		config.Mongo.Port = 27017
	}
	return nil
}

// AllowOrigins splits the comma separated CORS origin list
func (config *Config) AllowOrigins() []string {
	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(config.App.CorsAllowOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
