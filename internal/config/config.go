package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the server needs from the environment.
// Call godotenv.Load in main before Load so a local .env is honoured.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	RedisAddr   string

	// Orchestrator bound on a single provider round trip.
	ProviderTimeout time.Duration

	// Exchange rate source (South African Reserve Bank by default).
	RatesURL             string
	RatesRefreshInterval time.Duration

	// Provider credentials. Encrypted values may be supplied as
	// <NAME>_ENCRYPTED and are decrypted with CONFIG_ENCRYPTION_KEY.
	FNB     FNBConfig
	PayPal  PayPalConfig
	VALR    VALRConfig
	PayFast PayFastConfig
	Trust   TrustConfig
	Banks   map[string]BankConfig
}

// BankConfig covers the EFT banks that share one adapter shape.
type BankConfig struct {
	BaseURL string
	APIKey  string
}

type FNBConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantID   string
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

type VALRConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

type PayFastConfig struct {
	BaseURL     string
	MerchantID  string
	MerchantKey string
	Passphrase  string
}

type TrustConfig struct {
	RPCURL      string
	FromAddress string
}

// Load builds a Config from the environment. Secrets stored as
// <NAME>_ENCRYPTED take precedence over their plaintext counterpart.
func Load() (Config, error) {
	cfg := Config{
		Port:                 getenv("PORT", "8080"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		RedisAddr:            redisAddr(),
		ProviderTimeout:      getDuration("PROVIDER_TIMEOUT", 30*time.Second),
		RatesURL:             getenv("RATES_URL", "https://api.resbank.co.za/LatestRates"),
		RatesRefreshInterval: getDuration("RATES_REFRESH_INTERVAL", time.Hour),
	}

	dsn, err := databaseURL()
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseURL = dsn

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.FNB = FNBConfig{
		BaseURL:      getenv("FNB_API_URL", "https://api.fnb.co.za"),
		ClientID:     os.Getenv("FNB_CLIENT_ID"),
		ClientSecret: secret("FNB_CLIENT_SECRET"),
		MerchantID:   os.Getenv("FNB_MERCHANT_ID"),
	}
	cfg.PayPal = PayPalConfig{
		BaseURL:      getenv("PAYPAL_API_URL", "https://api.sandbox.paypal.com"),
		ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		ClientSecret: secret("PAYPAL_CLIENT_SECRET"),
	}
	cfg.VALR = VALRConfig{
		BaseURL:   getenv("VALR_API_URL", "https://api.valr.com"),
		APIKey:    os.Getenv("VALR_API_KEY"),
		APISecret: secret("VALR_API_SECRET"),
	}
	cfg.PayFast = PayFastConfig{
		BaseURL:     getenv("PAYFAST_API_URL", "https://sandbox.payfast.co.za"),
		MerchantID:  os.Getenv("PAYFAST_MERCHANT_ID"),
		MerchantKey: secret("PAYFAST_MERCHANT_KEY"),
		Passphrase:  secret("PAYFAST_PASSPHRASE"),
	}
	cfg.Trust = TrustConfig{
		RPCURL:      getenv("ETHEREUM_RPC_URL", "https://mainnet.infura.io/v3/YOUR-PROJECT-ID"),
		FromAddress: os.Getenv("ETHEREUM_FROM_ADDRESS"),
	}

	cfg.Banks = make(map[string]BankConfig)
	for _, b := range []struct{ name, env, url string }{
		{"absa", "ABSA", "https://api.absa.africa"},
		{"standard", "STANDARDBANK", "https://api.standardbank.co.za"},
		{"nedbank", "NEDBANK", "https://api.nedbank.co.za"},
		{"capitec", "CAPITEC", "https://api.capitec.co.za"},
	} {
		cfg.Banks[b.name] = BankConfig{
			BaseURL: getenv(b.env+"_API_URL", b.url),
			APIKey:  secret(b.env + "_API_KEY"),
		}
	}
	return cfg, nil
}

func databaseURL() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", fmt.Errorf("DATABASE_URL or DB_USER/DB_NAME are required")
	}
	password := secret("DB_PASSWORD")
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		user, password,
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		name,
	), nil
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		return host + ":" + getenv("REDIS_PORT", "6379")
	}
	return "127.0.0.1:6379"
}

// secret returns NAME from the environment, preferring an encrypted
// NAME_ENCRYPTED variant when present. A value that fails to decrypt is
// treated as absent rather than passed through as ciphertext.
func secret(name string) string {
	if enc := os.Getenv(name + "_ENCRYPTED"); enc != "" {
		plain, err := Decrypt(enc)
		if err == nil {
			return plain
		}
	}
	return os.Getenv(name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
