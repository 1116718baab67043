package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with
// defaults matching a local single-process deployment.
type Config struct {
	// External tools
	FFmpegPath  string // path to the ffmpeg binary; ffprobe is derived from it
	YtDlpPath   string // path to the yt-dlp binary
	CookiesFile string // optional cookies file passed to yt-dlp when present

	// Storage layout
	UploadDir     string // acquired videos and extracted audio
	TranscriptDir string // one JSON transcript file per video id
	WebAppDir     string // static web UI files

	// Pipeline limits
	MaxVideoDuration int   // seconds; remote videos longer than this are refused
	APIUploadLimit   int64 // bytes; above this the API backend switches to chunking
	ChunkSeconds     int   // duration of each audio chunk
	PipelineWorkers  int   // size of the background worker pool

	// Transcription backend
	WhisperBackend   string // "api" or "local"
	WhisperModelSize string // local model size selector, e.g. "base"

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	WhisperModel  string // remote speech model
	ChatModel     string // Q&A model

	// HTTP
	Port string

	// Database (users)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (optional status mirror)
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO (optional durable transcript layer)
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Auth & notification
	JWTSecret      string
	ProfessorEmail string
	ResendAPIKey   string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		YtDlpPath:   getEnv("YTDLP_PATH", "yt-dlp"),
		CookiesFile: getEnv("COOKIES_FILE", "cookies.txt"),

		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		TranscriptDir: getEnv("TRANSCRIPT_DIR", "transcripts"),
		WebAppDir:     getEnv("WEBAPP_DIR", filepath.Join("web", "ui")),

		MaxVideoDuration: getEnvInt("MAX_VIDEO_DURATION", 300),
		APIUploadLimit:   getEnvInt64("API_UPLOAD_LIMIT", 26214400), // 25 MiB
		ChunkSeconds:     getEnvInt("CHUNK_SECONDS", 120),
		PipelineWorkers:  getEnvInt("PIPELINE_WORKERS", 4),

		WhisperBackend:   getEnv("WHISPER_BACKEND", "api"),
		WhisperModelSize: getEnv("WHISPER_MODEL_SIZE", "base"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		WhisperModel:  getEnv("WHISPER_MODEL", "whisper-1"),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),

		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "lectura"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "lectura"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret:      getEnv("JWT_SECRET", "lectura-dev-secret"),
		ProfessorEmail: getEnv("PROFESSOR_EMAIL", ""),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
	}
}
