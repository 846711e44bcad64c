package main // Entry point package

import (
	"context"   // root context for startup work and shutdown
	"errors"    // errors.Is distinguishes a clean server close
	"log"       // Logging library
	"net/http"  // http.ErrServerClosed
	"os"        // os.Interrupt for the shutdown signal
	"os/signal" // signal.NotifyContext cancels on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // shutdown and startup timeouts

	"github.com/joho/godotenv" // loads .env in development

	"github.com/iliyamo/groovemind/internal/config"     // Internal config loader
	"github.com/iliyamo/groovemind/internal/database"   // document store
	"github.com/iliyamo/groovemind/internal/email"      // confirmation email sender
	"github.com/iliyamo/groovemind/internal/handler"    // HTTP handlers
	"github.com/iliyamo/groovemind/internal/middleware" // response cache
	"github.com/iliyamo/groovemind/internal/queue"      // booking event consumer
	"github.com/iliyamo/groovemind/internal/repository" // course, user and session storage
	"github.com/iliyamo/groovemind/internal/router"     // Internal router setup
	"github.com/iliyamo/groovemind/internal/seed"       // initial course catalogue
	"github.com/iliyamo/groovemind/internal/service"    // booking event publisher
)

func main() {
	if err := godotenv.Load(); err != nil { // a missing .env is normal outside development
		log.Printf("no .env loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate store: %v", err)
	}

	courses := repository.NewCourseRepo(db)
	users := repository.NewUserRepo(db, cfg.BcryptCost)

	if cfg.SeedFile != "" {
		list, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		n, err := seed.Apply(ctx, courses, list)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded %d courses from %s", n, cfg.SeedFile)
	}
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureOrganiser(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap organiser: %v", err)
		}
		if created {
			log.Printf("created organiser %q", cfg.AdminUsername)
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	var sessions repository.SessionRepo
	if rdb != nil {
		defer rdb.Close()
		sessions = repository.NewRedisSessionRepo(rdb, "session")
	} else {
		log.Println("redis unavailable: sessions in memory, rate limiting and caching off")
		sessions = repository.NewMemorySessionRepo()
	}

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	deps := handler.Deps{
		Courses:  courses,
		Users:    users,
		Sessions: sessions,
		Cache:    cache,
	}

	if cfg.RabbitURL != "" {
		pub := service.NewBookingPublisher(cfg.RabbitURL)
		defer pub.Close()
		deps.Events = pub

		consumer := &queue.BookingConsumer{
			URL:    cfg.RabbitURL,
			LogDir: cfg.BookingLogDir,
			Mailer: email.New(cfg.ResendAPIKey, cfg.MailFrom),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set: booking events disabled")
	}

	h := handler.New(cfg, deps)
	e, err := router.NewServer(cfg, h, router.Options{
		Redis:     rdb,
		Sessions:  sessions,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cache,
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
