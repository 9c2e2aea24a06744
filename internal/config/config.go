package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration

	// Login credentials. AdminEmail/AdminPassword gate the single admin
	// account. StudentPortalPassword is one shared constant for every
	// student login; it is a placeholder credential carried over from the
	// source design, not a per-student secret.
	AdminEmail            string
	AdminPassword         string
	StudentPortalPassword string

	// TeacherDefaultPassword is assigned to every teacher account at
	// creation; the account keeps is_default_password until the teacher
	// changes it.
	TeacherDefaultPassword string

	ScanCooldown   time.Duration
	ScanDisplayTTL time.Duration

	QRServiceURL string
	QRRemote     bool
	QRPixels     int

	RateLimitPerMin int
	SeedDemo        bool
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("HTTP_PORT", "8082"),

		JWTIssuer:     getEnv("JWT_ISSUER", "qrattendance"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:     durationEnv("ACCESS_TTL", 8*time.Hour),

		AdminEmail:            getEnv("ADMIN_EMAIL", "admin@school.edu"),
		AdminPassword:         getEnv("ADMIN_PASSWORD", "admin123"),
		StudentPortalPassword: getEnv("STUDENT_PORTAL_PASSWORD", "student123"),

		TeacherDefaultPassword: getEnv("TEACHER_DEFAULT_PASSWORD", "teacher123"),

		ScanCooldown:   durationEnv("SCAN_COOLDOWN", 2*time.Second),
		ScanDisplayTTL: durationEnv("SCAN_DISPLAY_TTL", 3*time.Second),

		QRServiceURL: getEnv("QR_SERVICE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
		QRRemote:     boolEnv("QR_REMOTE", false),
		QRPixels:     intEnv("QR_PIXELS", 256),

		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
		SeedDemo:        boolEnv("SEED_DEMO", true),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
