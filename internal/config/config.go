package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string
	LogDir      string // events.log is written here; empty disables the file sink

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Capture
	// CameraSource is a device index ("0") or any URL/path OpenCV accepts
	CameraSource string
	FrameWidth   int
	FrameHeight  int
	CaptureFPS   int

	// Frame Processing
	FrameProcessingInterval int // process every Nth captured frame
	ReRecognitionInterval   int // re-resolve unknown tracks every Nth captured frame

	// Restricted zone (pixels)
	ZoneX      int
	ZoneY      int
	ZoneWidth  int
	ZoneHeight int
	ZoneMode   string // "strip" (horizontal center only) or "rect"
	ZoneLabel  string

	// Decision policy
	LoiterThreshold time.Duration
	TrackTTL        time.Duration
	AlertCooldown   time.Duration // unknown-loiter alerts only

	// Detector (gRPC)
	DetectorGRPCURL     string
	DetectorConfidence  float64
	DetectorPersonClass int

	// Identity (gRPC face embedder + registered gallery)
	IdentityEnabled    bool
	IdentityGRPCURL    string
	FacesDir           string
	FaceMatchThreshold float64

	// Shared gRPC client settings
	AITimeout        time.Duration
	AIBackoffInitial time.Duration
	AIBackoffMax     time.Duration

	// Tracker (ByteTrack)
	TrackerMaxDisappeared int
	TrackerMinHits        int
	TrackerMinIoU         float64
	TrackerHighThresh     float64
	TrackerLowThresh      float64

	// NATS (for alert push)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	// Docker: Use nats://nats:4222 if running worker in Docker
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration // For graceful shutdown

	// Alert dispatch
	AlertsSubject   string
	AlertsWorkers   int
	AlertsQueueSize int
	SnapshotDir     string
	SirenEnabled    bool
	SirenPath       string
	SirenPlayer     string

	// Journal (sqlite)
	DBPath           string
	JournalQueueSize int

	// Stream Output
	OutputQuality int // JPEG quality (1-100)

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// Delay before restarting a crashed goroutine
	PanicRestartDelay time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "zoneguard-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogDir:      getEnv("LOG_DIR", "logs"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Capture
		CameraSource: getEnv("CAMERA_SOURCE", "0"),
		FrameWidth:   getEnvInt("FRAME_WIDTH", 1520),
		FrameHeight:  getEnvInt("FRAME_HEIGHT", 700),
		CaptureFPS:   getEnvInt("CAPTURE_FPS", 30),

		// Frame Processing
		FrameProcessingInterval: getEnvInt("FRAME_PROCESSING_INTERVAL", 2),
		ReRecognitionInterval:   getEnvInt("RE_RECOGNITION_INTERVAL", 10),

		// Restricted zone
		ZoneX:      getEnvInt("ZONE_X", 0),
		ZoneY:      getEnvInt("ZONE_Y", 0),
		ZoneWidth:  getEnvInt("ZONE_WIDTH", 350),
		ZoneHeight: getEnvInt("ZONE_HEIGHT", 720),
		ZoneMode:   getEnv("ZONE_MODE", "strip"),
		ZoneLabel:  getEnv("ZONE_LABEL", "Restricted Zone"),

		// Decision policy
		LoiterThreshold: getEnvDuration("LOITER_THRESHOLD", 10*time.Second),
		TrackTTL:        getEnvDuration("TRACK_TTL", 2*time.Second),
		AlertCooldown:   getEnvDuration("ALERT_COOLDOWN", 10*time.Second),

		// Detector
		DetectorGRPCURL:     getEnv("DETECTOR_GRPC_URL", "localhost:50052"),
		DetectorConfidence:  getEnvFloat("DETECTOR_CONFIDENCE", 0.5),
		DetectorPersonClass: getEnvInt("DETECTOR_PERSON_CLASS", 0),

		// Identity
		IdentityEnabled:    getEnvBool("IDENTITY_ENABLED", true),
		IdentityGRPCURL:    getEnv("IDENTITY_GRPC_URL", "localhost:50053"),
		FacesDir:           getEnv("FACES_DIR", "registered_faces"),
		FaceMatchThreshold: getEnvFloat("FACE_MATCH_THRESHOLD", 0.6),

		// gRPC
		AITimeout:        getEnvDuration("AI_TIMEOUT", 5*time.Second),
		AIBackoffInitial: getEnvDuration("AI_BACKOFF_INITIAL", 1*time.Second),
		AIBackoffMax:     getEnvDuration("AI_BACKOFF_MAX", 30*time.Second),

		// Tracker
		TrackerMaxDisappeared: getEnvInt("TRACKER_MAX_DISAPPEARED", 30),
		TrackerMinHits:        getEnvInt("TRACKER_MIN_HITS", 3),
		TrackerMinIoU:         getEnvFloat("TRACKER_MIN_IOU", 0.3),
		TrackerHighThresh:     getEnvFloat("TRACKER_HIGH_THRESH", 0.5),
		TrackerLowThresh:      getEnvFloat("TRACKER_LOW_THRESH", 0.1),

		// NATS (configured for Docker Compose setup)
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		// Alert dispatch
		AlertsSubject:   getEnv("ALERTS_SUBJECT", "alerts"),
		AlertsWorkers:   getEnvInt("ALERTS_WORKERS", 2),
		AlertsQueueSize: getEnvInt("ALERTS_QUEUE_SIZE", 32),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "alert_snapshots"),
		SirenEnabled:    getEnvBool("SIREN_ENABLED", true),
		SirenPath:       getEnv("SIREN_PATH", "assets/siren.wav"),
		SirenPlayer:     getEnv("SIREN_PLAYER", "aplay"),

		// Journal
		DBPath:           getEnv("DB_PATH", "zoneguard.db"),
		JournalQueueSize: getEnvInt("JOURNAL_QUEUE_SIZE", 256),

		// Stream Output
		OutputQuality: getEnvInt("OUTPUT_QUALITY", 80),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		PanicRestartDelay: getEnvDuration("PANIC_RESTART_DELAY", 2*time.Second),
	}
}

// Validate rejects settings the decision engine cannot run with.
func (c *Config) Validate() error {
	if c.FrameProcessingInterval < 1 {
		return fmt.Errorf("FRAME_PROCESSING_INTERVAL must be >= 1, got %d", c.FrameProcessingInterval)
	}
	if c.ReRecognitionInterval < 1 {
		return fmt.Errorf("RE_RECOGNITION_INTERVAL must be >= 1, got %d", c.ReRecognitionInterval)
	}
	if c.ZoneWidth <= 0 || c.ZoneHeight <= 0 {
		return fmt.Errorf("zone must have positive size, got %dx%d", c.ZoneWidth, c.ZoneHeight)
	}
	if c.ZoneMode != "strip" && c.ZoneMode != "rect" {
		return fmt.Errorf("ZONE_MODE must be strip or rect, got %q", c.ZoneMode)
	}
	if c.LoiterThreshold <= 0 || c.TrackTTL <= 0 || c.AlertCooldown < 0 {
		return fmt.Errorf("loiter threshold and track TTL must be positive, cooldown non-negative")
	}
	if c.TrackerMinHits < 1 {
		return fmt.Errorf("TRACKER_MIN_HITS must be >= 1, got %d", c.TrackerMinHits)
	}
	if c.OutputQuality < 1 || c.OutputQuality > 100 {
		return fmt.Errorf("OUTPUT_QUALITY must be within 1-100, got %d", c.OutputQuality)
	}
	if c.AlertsWorkers < 1 {
		return fmt.Errorf("ALERTS_WORKERS must be >= 1, got %d", c.AlertsWorkers)
	}
	// Unknown tracks are only re-resolved on frames that are also processed.
	if c.ReRecognitionInterval%c.FrameProcessingInterval != 0 {
		log.Warn().
			Int("frame_interval", c.FrameProcessingInterval).
			Int("re_recognition_interval", c.ReRecognitionInterval).
			Msg("Re-recognition interval is not a multiple of the processing interval; some re-recognition frames will be skipped")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("10s") and bare seconds ("10", "2.5").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}
	if isRunningInDocker() {
		return "nats://nats:4222"
	}
	return "nats://localhost:4222"
}
