package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lectura/config"
	"lectura/core/agent"
	"lectura/core/audio"
	"lectura/core/auth"
	"lectura/core/pipeline"
	"lectura/core/transcribe"
	"lectura/core/transcript"
	"lectura/core/video"
	"lectura/db"
	"lectura/logger"
	"lectura/notify"
	"lectura/repository"
	"lectura/status"
	"lectura/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: "logs/lectura.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Create necessary directories if they don't exist
	ensureDirExists(cfg.UploadDir)
	ensureDirExists(cfg.TranscriptDir)

	// Users database. Auth endpoints are disabled when it is unreachable so
	// the transcription pipeline still works in a bare deployment.
	var userRepo repository.UserRepository
	if err := db.ConnectDB(cfg); err != nil {
		logger.Warn("database unavailable, auth endpoints disabled", logger.ErrorField(err))
	} else {
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		userRepo = repository.NewMySQLUserRepository(db.DB)
	}

	// Durable transcript layer: local files by default, MinIO when configured.
	var transcriptRepo repository.TranscriptRepository
	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		transcriptRepo = repository.NewMinioTranscriptRepository(storage.GetMinioClient(), cfg.MinioBucket)
	} else {
		transcriptRepo = repository.NewFileTranscriptRepository(cfg.TranscriptDir)
	}
	store := transcript.NewStore(transcriptRepo)

	// Warm the cache from already-persisted transcripts and keep warming as
	// new ones are written.
	if !cfg.MinioEnabled {
		preheater := transcript.NewPreheater(store, cfg.TranscriptDir)
		if err := preheater.Start(); err != nil {
			logger.Warn("transcript preheater disabled", logger.ErrorField(err))
		} else {
			defer preheater.Stop()
		}
	}

	// Status tracker: in-process by default, Redis-backed when configured.
	var tracker status.Tracker
	if cfg.RedisEnabled {
		redisTracker, err := status.NewRedisTracker(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisTracker.Close()
		tracker = redisTracker
	} else {
		tracker = status.NewMemoryTracker()
	}

	extractor := audio.NewExtractor(cfg.FFmpegPath)
	downloader := video.NewDownloader(cfg.YtDlpPath, cfg.CookiesFile, cfg.UploadDir)
	transcriber := transcribe.New(cfg, extractor)

	pipe := pipeline.New(cfg, downloader, extractor, transcriber, tracker, store)
	defer pipe.Stop()

	tutorAgent := agent.NewTutorAgent(&agent.TutorAgentConfig{
		APIBaseURL:  cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.ChatModel,
		MaxTokens:   300,
		Temperature: 0.7,
	})
	mailer := notify.NewMailer(cfg.ResendAPIKey)

	apiHandler := NewAPIHandler(pipe, tracker, store, tutorAgent, mailer, userRepo, cfg)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Pipeline API endpoints
	router.HandleFunc("/api/upload", apiHandler.UploadVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/youtube", apiHandler.ProcessRemoteHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/status/{video_id}", apiHandler.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/status/{video_id}/ws", apiHandler.StatusWebSocketHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/transcript/{video_id}", apiHandler.TranscriptHandler).Methods(http.MethodGet)

	// Q&A endpoints
	router.HandleFunc("/api/ask", apiHandler.AskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/feedback", apiHandler.OptionalAuthMiddleware(apiHandler.FeedbackHandler)).Methods(http.MethodPost)

	// Auth endpoints
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/user", apiHandler.OptionalAuthMiddleware(apiHandler.CurrentUserHandler)).Methods(http.MethodGet)

	// Static file serving
	uploadsFileServer := http.FileServer(http.Dir(cfg.UploadDir))
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsFileServer))

	// Frontend UI serving
	uiFileServer := http.FileServer(http.Dir(cfg.WebAppDir))
	router.PathPrefix("/").Handler(uiFileServer)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on :%s...", cfg.Port)
		log.Println("Upload videos via POST to /api/upload")
		log.Println("Process remote videos via POST to /api/youtube")
		log.Println("Poll transcription status via GET /api/status/{video_id}")
		log.Println("Fetch transcripts via GET /api/transcript/{video_id}")
		log.Println("Ask questions via POST to /api/ask")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
