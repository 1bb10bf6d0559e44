package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/redis/go-redis/v9"

	"admissions_backend/internals/configs"
	database "admissions_backend/internals/databases"
	"admissions_backend/internals/features/academics/courses/scheduler"
	courseService "admissions_backend/internals/features/academics/courses/service"
	enrollmentService "admissions_backend/internals/features/academics/enrollments/service"
	studentService "admissions_backend/internals/features/academics/students/service"
	applicantService "admissions_backend/internals/features/admissions/applicants/service"
	"admissions_backend/internals/features/notifications"
	helper "admissions_backend/internals/helpers"
	"admissions_backend/internals/middlewares"
	routes "admissions_backend/internals/route"
	"admissions_backend/internals/seeds"
)

func main() {
	cfg, err := configs.LoadEnv()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[CONFIG] JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromError(c, err)
		},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app, cfg)

	// DB connect + pool + schema
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("[DB] connect: %v", err)
	}
	database.TunePool(db)
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("[DB] migrate: %v", err)
	}
	database.WarmUpQueries(db)
	if cfg.SeedCourses {
		seeds.RunAllSeeds(db)
	}

	// Notifications (best effort, after commit)
	rdb := newRedis(cfg.RedisURL)
	dispatcher := notifications.NewDispatcher(buildGateway(cfg, rdb), notifications.DispatcherOptions{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
		SendTimeout: cfg.NotifyTimeout,
	})

	applicants := applicantService.NewApplicantService(db, dispatcher)
	courses := courseService.NewCourseService(db)
	students := studentService.NewStudentService(db)
	enrollments := enrollmentService.NewEnrollmentService(db, courseService.NewSeatGuard())

	reconciler, err := scheduler.StartCounterReconciler(courses, cfg.ReconcileCron)
	if err != nil {
		log.Fatalf("[RECONCILE] %v", err)
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:          db,
		JWTSecret:   cfg.JWTSecret,
		Applicants:  applicants,
		Courses:     courses,
		Students:    students,
		Enrollments: enrollments,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("[HTTP] listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop intake, drain notifications, close pools
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if reconciler != nil {
		<-reconciler.Stop().Done()
	}
	if err := dispatcher.Close(ctx); err != nil {
		log.Printf("[Notify] shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildGateway always logs; Resend and the Redis stream join when configured.
func buildGateway(cfg *configs.Config, rdb *redis.Client) notifications.Gateway {
	gws := notifications.Fanout{notifications.LogGateway{}}
	if cfg.ResendAPIKey != "" {
		gws = append(gws, notifications.NewResendGateway(notifications.ResendConfig{
			APIKey:        cfg.ResendAPIKey,
			From:          cfg.ResendFrom,
			RatePerSecond: cfg.EmailRatePerSecond,
		}))
		log.Println("[Notify] Resend email enabled")
	}
	if rdb != nil {
		gws = append(gws, notifications.NewRedisStreamGateway(rdb))
		log.Println("[Notify] Redis stream enabled")
	}
	return gws
}

func newRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[Redis] bad REDIS_URL, stream disabled: %v", err)
		return nil
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[Redis] ping failed, stream disabled: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
