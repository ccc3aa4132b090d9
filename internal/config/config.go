// Package config loads application configuration from environment
// variables.  Engine knobs (reservation window, sweep cadence, gateway
// credentials) are explicit fields passed into component constructors,
// never read from ambient globals, so tests can inject their own limits
// and clocks.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; strings for identifiers and secrets, ints
// for durations and sizes.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret     string // secret used to verify access tokens issued by the auth service
	CheckinSecret string // secret used to sign check-in tokens

	ReservationWindowMin int // minutes a RESERVED hold lives before the sweeper reclaims it
	SweepIntervalSec     int // seconds between sweeper cycles
	SweepBatchSize       int // max expired holds one sweep cycle touches
	SeatCacheTTLSec      int // seconds a cached seat map stays valid
	RefundFeePercent     int // percent withheld from refunds (0 = full refund)
	GatewayTimeoutSec    int // timeout for outbound gateway calls

	// Gateway credentials.  An empty primary credential leaves the
	// provider unregistered; cash is always available.
	VNPayTmnCode    string
	VNPayHashSecret string
	VNPayPayURL     string
	VNPayAPIURL     string

	MoMoPartnerCode string
	MoMoAccessKey   string
	MoMoSecretKey   string
	MoMoEndpoint    string
	MoMoIPNURL      string

	ZaloAppID    string
	ZaloKey1     string
	ZaloKey2     string
	ZaloEndpoint string
}

// Load reads configuration from the environment, consulting a .env file
// first when one exists.  Required variables are enforced by must() and
// missing values terminate the process with a fatal log message.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:     must("JWT_SECRET"),
		CheckinSecret: must("CHECKIN_SECRET"),

		ReservationWindowMin: intOr("RESERVATION_WINDOW_MIN", 15),
		SweepIntervalSec:     intOr("SWEEP_INTERVAL_SEC", 300),
		SweepBatchSize:       intOr("SWEEP_BATCH_SIZE", 200),
		SeatCacheTTLSec:      intOr("SEAT_CACHE_TTL_SEC", 30),
		RefundFeePercent:     intOr("REFUND_FEE_PERCENT", 0),
		GatewayTimeoutSec:    intOr("GATEWAY_TIMEOUT_SEC", 10),

		VNPayTmnCode:    os.Getenv("VNPAY_TMN_CODE"),
		VNPayHashSecret: os.Getenv("VNPAY_HASH_SECRET"),
		VNPayPayURL:     envOr("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		VNPayAPIURL:     envOr("VNPAY_API_URL", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"),

		MoMoPartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
		MoMoAccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
		MoMoSecretKey:   os.Getenv("MOMO_SECRET_KEY"),
		MoMoEndpoint:    envOr("MOMO_ENDPOINT", "https://test-payment.momo.vn"),
		MoMoIPNURL:      os.Getenv("MOMO_IPN_URL"),

		ZaloAppID:    os.Getenv("ZALO_APP_ID"),
		ZaloKey1:     os.Getenv("ZALO_KEY1"),
		ZaloKey2:     os.Getenv("ZALO_KEY2"),
		ZaloEndpoint: envOr("ZALO_ENDPOINT", "https://sb-openapi.zalopay.vn"),
	}
}

// must retrieves a required environment variable or exits fatally.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envOr returns the variable's value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intOr parses an optional integer variable, falling back to a default.
// An unparsable value is fatal rather than silently defaulted.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
