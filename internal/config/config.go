package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Multi-face enrollment policies.
const (
	MultiFaceReject  = "reject"
	MultiFaceLargest = "largest"
	MultiFaceFirst   = "first"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	FaceModel   FaceModelConfig   `yaml:"face_model"`
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Enrollment  EnrollmentConfig  `yaml:"enrollment"`
	Attendance  AttendanceConfig  `yaml:"attendance"`
	Redis       RedisConfig       `yaml:"redis"`
	Web         WebConfig         `yaml:"web"`
	Log         LogConfig         `yaml:"log"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"`              // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections
}

type FaceModelConfig struct {
	URL     string        `yaml:"url"`     // Base URL of the face embedding server
	Timeout time.Duration `yaml:"timeout"` // HTTP client timeout
}

type CameraConfig struct {
	Source        string        `yaml:"source"`         // http(s) MJPEG/snapshot URL or a directory of frames
	FrameInterval time.Duration `yaml:"frame_interval"` // Minimum delay between reads
	Loop          bool          `yaml:"loop"`           // Replay directory sources forever
}

type RecognitionConfig struct {
	Threshold      float64       `yaml:"threshold"`       // Max Euclidean distance accepted as a match
	Scale          float64       `yaml:"scale"`           // Downsample factor before detection
	FrameTimeout   time.Duration `yaml:"frame_timeout"`   // Per-frame FaceModel deadline
	JPEGQuality    int           `yaml:"jpeg_quality"`    // Quality of emitted frames
	HNSWMinRoster  int           `yaml:"hnsw_min_roster"` // Roster size at which the ANN index is built
	HNSWCandidates int           `yaml:"hnsw_candidates"` // Candidates re-ranked exactly
	MaxStreams     int           `yaml:"max_streams"`     // Concurrent video feeds
}

type EnrollmentConfig struct {
	MultiFacePolicy string `yaml:"multi_face_policy"` // reject, largest or first
	MaxImageSize    int    `yaml:"max_image_size"`    // Longest side of the photo sent to the model
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`  // Multipart body limit
}

type AttendanceConfig struct {
	Timezone string `yaml:"timezone"` // IANA zone for calendar days; empty means local
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`    // Optional; empty disables Redis fan-out
	Channel string `yaml:"channel"` // Pub/sub channel for attendance events
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // development or production
}

// Addr returns the listen address.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the configured attendance time zone.
func (c *AttendanceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// envString overrides a value when the env var is set and non-empty.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float, falling back to the default when invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads a Go duration string such as "2s" or "150ms".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults returns the embedded defaults without environment overrides.
func Defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	d := Defaults()

	cfg := &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		FaceModel: FaceModelConfig{
			URL:     envString("FACE_MODEL_URL", d.FaceModel.URL),
			Timeout: envDuration("FACE_MODEL_TIMEOUT", d.FaceModel.Timeout),
		},
		Camera: CameraConfig{
			Source:        envString("CAMERA_SOURCE", d.Camera.Source),
			FrameInterval: envDuration("CAMERA_FRAME_INTERVAL", d.Camera.FrameInterval),
			Loop:          envBool("CAMERA_LOOP", d.Camera.Loop),
		},
		Recognition: RecognitionConfig{
			Threshold:      envFloat("RECOGNITION_THRESHOLD", d.Recognition.Threshold),
			Scale:          envFloat("RECOGNITION_SCALE", d.Recognition.Scale),
			FrameTimeout:   envDuration("RECOGNITION_FRAME_TIMEOUT", d.Recognition.FrameTimeout),
			JPEGQuality:    envInt("RECOGNITION_JPEG_QUALITY", d.Recognition.JPEGQuality),
			HNSWMinRoster:  envInt("RECOGNITION_HNSW_MIN_ROSTER", d.Recognition.HNSWMinRoster),
			HNSWCandidates: envInt("RECOGNITION_HNSW_CANDIDATES", d.Recognition.HNSWCandidates),
			MaxStreams:     envInt("RECOGNITION_MAX_STREAMS", d.Recognition.MaxStreams),
		},
		Enrollment: EnrollmentConfig{
			MultiFacePolicy: strings.ToLower(envString("ENROLL_MULTI_FACE_POLICY", d.Enrollment.MultiFacePolicy)),
			MaxImageSize:    envInt("ENROLL_MAX_IMAGE_SIZE", d.Enrollment.MaxImageSize),
			MaxUploadBytes:  int64(envInt("ENROLL_MAX_UPLOAD_BYTES", int(d.Enrollment.MaxUploadBytes))),
		},
		Attendance: AttendanceConfig{
			Timezone: envString("ATTENDANCE_TIMEZONE", d.Attendance.Timezone),
		},
		Redis: RedisConfig{
			Addr:    envString("REDIS_ADDR", d.Redis.Addr),
			Channel: envString("REDIS_CHANNEL", d.Redis.Channel),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
		Log: LogConfig{
			Mode: envString("LOG_MODE", d.Log.Mode),
		},
	}

	if cfg.Recognition.Scale > 1 {
		cfg.Recognition.Scale = d.Recognition.Scale
	}
	if cfg.Recognition.JPEGQuality > 100 {
		cfg.Recognition.JPEGQuality = d.Recognition.JPEGQuality
	}

	return cfg
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Enrollment.MultiFacePolicy {
	case MultiFaceReject, MultiFaceLargest, MultiFaceFirst:
	default:
		return fmt.Errorf("invalid ENROLL_MULTI_FACE_POLICY %q (want reject, largest or first)", c.Enrollment.MultiFacePolicy)
	}
	if _, err := c.Attendance.Location(); err != nil {
		return err
	}
	return nil
}
