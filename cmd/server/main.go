package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-sizer/internal/api"
	"github.com/technosupport/ts-sizer/internal/calc/engine"
	"github.com/technosupport/ts-sizer/internal/calc/multisite"
	"github.com/technosupport/ts-sizer/internal/catalog"
	"github.com/technosupport/ts-sizer/internal/data"
	"github.com/technosupport/ts-sizer/internal/metrics"
	"github.com/technosupport/ts-sizer/internal/middleware"
	"github.com/technosupport/ts-sizer/internal/notify"
	"github.com/technosupport/ts-sizer/internal/projects"
	"github.com/technosupport/ts-sizer/internal/ratelimit"
	"github.com/technosupport/ts-sizer/internal/tokens"
	"github.com/technosupport/ts-sizer/internal/webhook"
)

const serviceName = "TS-Sizer"

type serverConfig struct {
	Presets struct {
		Dir string `yaml:"dir"`
	} `yaml:"presets"`
	RateLimit middleware.Config `yaml:"rate_limit"`
	Webhook   struct {
		Enabled         bool   `yaml:"enabled"`
		NatsSubject     string `yaml:"nats_subject"`
		PublishRetryMax int    `yaml:"publish_retry_max"`
		DedupTTLSeconds int    `yaml:"dedup_ttl_seconds"`
		DedupMaxKeys    int    `yaml:"dedup_max_keys"`
	} `yaml:"webhook"`
	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		From string `yaml:"from"`
		BCC  string `yaml:"bcc"`
	} `yaml:"smtp"`
	APIKeys map[string]api.APIKey `yaml:"api_keys"`
}

func main() {
	// 1. Config
	var cfg serverConfig
	cfgData, err := os.ReadFile("config/default.yaml")
	if err != nil {
		log.Fatalf("Config read error: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("Config parse error: %v", err)
	}
	if cfg.Presets.Dir == "" {
		cfg.Presets.Dir = "config/presets"
	}

	dbHost := os.Getenv("DB_HOST")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	redisAddr := os.Getenv("REDIS_ADDR")
	jwtKey := os.Getenv("JWT_SIGNING_KEY")
	rlSalt := os.Getenv("RATE_LIMIT_SALT")

	if jwtKey == "" {
		jwtKey = "dev-secret-do-not-use-in-prod"
	}
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	if rlSalt == "" {
		rlSalt = "dev-salt"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Preset Catalog
	catalogs, err := catalog.NewManager(cfg.Presets.Dir)
	if err != nil {
		log.Fatalf("Preset catalog load error: %v", err)
	}
	catalogs.StartWatcher(ctx)

	// 3. DB Init
	// The store fails soft: a dead database degrades history and replay,
	// never the calculation itself.
	connStr := fmt.Sprintf("postgres://%s:%s@%s:5432/%s?sslmode=disable", dbUser, dbPass, dbHost, dbName)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("DB open error: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Printf("Warning: DB ping failed: %v. History and replay degraded until it recovers.", err)
	}

	// Shared Redis Client
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

	// 4. Components
	tokenMgr := tokens.NewManager(jwtKey)
	limiter := ratelimit.NewLimiter(rdb, rlSalt)
	collector := metrics.NewCollector()

	// Webhook publisher, optional
	var publisher projects.Publisher
	var nc *nats.Conn
	if cfg.Webhook.Enabled {
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = nats.DefaultURL
		}
		nc, err = nats.Connect(natsURL, nats.Name(serviceName))
		if err != nil {
			log.Printf("Warning: NATS Connect Failed: %v. Result webhooks disabled.", err)
		} else {
			dedup := webhook.NewResultDedup(cfg.Webhook.DedupMaxKeys, cfg.Webhook.DedupTTLSeconds)
			publisher = webhook.NewNATSPublisher(nc, cfg.Webhook.NatsSubject, cfg.Webhook.PublishRetryMax, dedup)
			defer nc.Close()
		}
	}

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     cfg.SMTP.From,
		BCC:      cfg.SMTP.BCC,
	})

	e := engine.New()
	repo := data.ProjectModel{DB: db}
	svc := projects.NewService(repo, e, multisite.New(e), catalogs, publisher, mailer)
	svc.SetObserver(collector)

	// 5. Routes
	router := api.NewRouter(api.Routes{
		Calculations: api.NewCalculationHandler(svc, collector),
		Presets:      api.NewPresetHandler(catalogs, collector),
		Auth:         api.NewAuthHandler(tokenMgr, cfg.APIKeys),
		Email:        api.NewEmailHandler(mailer),
		Health:       api.NewHealthHandler(db, rdb, nc, catalogs),
		JWT:          middleware.NewJWTAuth(tokenMgr),
		RateLimit:    middleware.NewRateLimitMiddleware(limiter, cfg.RateLimit),
		Collector:    collector,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown error: %v", err)
	}
	log.Println("Server stopped gracefully")
}
