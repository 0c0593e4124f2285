package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del sync.
type Config struct {
	Ghostfolio GhostfolioConfig `yaml:"ghostfolio"`
	EIC        EICConfig        `yaml:"eic"`
	Sources    SourcesConfig    `yaml:"sources"`
	Sync       SyncConfig       `yaml:"sync"`
	Retry      RetryConfig      `yaml:"retry"`
	Journal    JournalConfig    `yaml:"journal"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// GhostfolioConfig describe la instancia destino y las entidades que se reconcilian.
type GhostfolioConfig struct {
	URL           string  `yaml:"url"`
	SecurityToken string  `yaml:"security_token"` // mejor por env: GHOSTFOLIO_SECURITY_TOKEN
	RatePerSec    float64 `yaml:"rate_per_sec"`
	AccountName   string  `yaml:"account_name"`
	TargetTag     string  `yaml:"target_tag"`
	PlatformName  string  `yaml:"platform_name"`
	PlatformURL   string  `yaml:"platform_url"`
	FeeSymbol     string  `yaml:"fee_symbol"`
	GatherData    bool    `yaml:"gather_data"` // isActive de los perfiles creados
}

// EICConfig controla el login y el navegador.
type EICConfig struct {
	BaseURL      string `yaml:"base_url"`
	Login        string `yaml:"login"`
	Password     string `yaml:"password"`
	Headless     *bool  `yaml:"headless"` // nil = true
	ChromePath   string `yaml:"chrome_path"`
	SettleMillis int    `yaml:"settle_millis"`
}

// SourcesConfig contiene los base URLs de las fuentes secundarias.
// Vacío deja el default de cada adapter.
type SourcesConfig struct {
	JustETFAPI      string `yaml:"justetf_api"`
	JustETFProfile  string `yaml:"justetf_profile"`
	OFXBase         string `yaml:"ofx_base"`
	CountryCodesURL string `yaml:"country_codes_url"`
}

// SyncConfig controla el ritmo de escritura contra Ghostfolio.
type SyncConfig struct {
	BatchSize          int `yaml:"batch_size"`
	BatchDelaySeconds  int `yaml:"batch_delay_seconds"`
	CreateDelaySeconds int `yaml:"create_delay_seconds"`
}

// RetryConfig controla la espera ante un 429.
type RetryConfig struct {
	LongWaitSeconds  int `yaml:"long_wait_seconds"`
	ShortWaitSeconds int `yaml:"short_wait_seconds"`
	MaxRetries       int `yaml:"max_retries"`
}

// JournalConfig controla dónde se guarda el historial de ejecuciones.
type JournalConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o vacío para desactivarlo
}

// ServerConfig es el disparador HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
// Si path está vacío solo se usan el entorno y los defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate falla con todos los campos obligatorios que faltan.
func (c *Config) Validate() error {
	var errs []error
	missing := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("missing %s", name))
		}
	}
	missing(c.Ghostfolio.SecurityToken, "ghostfolio.security_token (GHOSTFOLIO_SECURITY_TOKEN)")
	missing(c.Ghostfolio.URL, "ghostfolio.url (GHOSTFOLIO_URL)")
	missing(c.EIC.Login, "eic.login (EIC_LOGIN)")
	missing(c.EIC.Password, "eic.password (EIC_PASSWORD)")
	missing(c.Ghostfolio.AccountName, "ghostfolio.account_name (GHOSTFOLIO_EIC_ACCOUNT_NAME)")
	missing(c.Ghostfolio.TargetTag, "ghostfolio.target_tag (GHOSTFOLIO_EIC_TARGET_TAG)")

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// ValidateBroker solo exige las credenciales del broker (inspect).
func (c *Config) ValidateBroker() error {
	var errs []error
	if c.EIC.Login == "" {
		errs = append(errs, errors.New("missing eic.login (EIC_LOGIN)"))
	}
	if c.EIC.Password == "" {
		errs = append(errs, errors.New("missing eic.password (EIC_PASSWORD)"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.ValidateBroker: %w", err)
	}
	return nil
}

// BatchDelay devuelve la pausa entre lotes de market data.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Sync.BatchDelaySeconds) * time.Second
}

// CreateDelay devuelve la pausa tras cada creación.
func (c *Config) CreateDelay() time.Duration {
	return time.Duration(c.Sync.CreateDelaySeconds) * time.Second
}

// Settle devuelve la espera tras cada interacción con el portal.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.EIC.SettleMillis) * time.Millisecond
}

// LongWait devuelve la espera ante un 429 en lecturas pesadas.
func (c *Config) LongWait() time.Duration {
	return time.Duration(c.Retry.LongWaitSeconds) * time.Second
}

// ShortWait devuelve la espera ante un 429 en creaciones ligeras.
func (c *Config) ShortWait() time.Duration {
	return time.Duration(c.Retry.ShortWaitSeconds) * time.Second
}

// HeadlessBrowser indica si Chrome arranca sin ventana.
func (c *Config) HeadlessBrowser() bool {
	return c.EIC.Headless == nil || *c.EIC.Headless
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"GHOSTFOLIO_SECURITY_TOKEN":   &cfg.Ghostfolio.SecurityToken,
		"GHOSTFOLIO_URL":              &cfg.Ghostfolio.URL,
		"GHOSTFOLIO_EIC_ACCOUNT_NAME": &cfg.Ghostfolio.AccountName,
		"GHOSTFOLIO_EIC_TARGET_TAG":   &cfg.Ghostfolio.TargetTag,
		"EIC_LOGIN":                   &cfg.EIC.Login,
		"EIC_PASSWORD":                &cfg.EIC.Password,
		"CHROME_PATH":                 &cfg.EIC.ChromePath,
		"JOURNAL_DSN":                 &cfg.Journal.DSN,
		"SERVER_ADDR":                 &cfg.Server.Addr,
		"LOG_LEVEL":                   &cfg.Log.Level,
		"LOG_FORMAT":                  &cfg.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("GATHER_DATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GATHER_DATA: %w", err)
		}
		cfg.Ghostfolio.GatherData = b
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	cfg.Ghostfolio.URL = strings.TrimRight(cfg.Ghostfolio.URL, "/")
	if cfg.Ghostfolio.RatePerSec <= 0 {
		cfg.Ghostfolio.RatePerSec = 5
	}
	if cfg.Ghostfolio.PlatformName == "" {
		cfg.Ghostfolio.PlatformName = "EIC"
	}
	if cfg.Ghostfolio.PlatformURL == "" {
		cfg.Ghostfolio.PlatformURL = "https://webapp.eic.eu/"
	}
	if cfg.Ghostfolio.FeeSymbol == "" {
		cfg.Ghostfolio.FeeSymbol = "EIC-MNG-FEE"
	}
	if cfg.EIC.SettleMillis <= 0 {
		cfg.EIC.SettleMillis = 1500
	}
	if cfg.Sync.BatchSize <= 0 {
		cfg.Sync.BatchSize = 500
	}
	// negativo desactiva la pausa
	if cfg.Sync.BatchDelaySeconds == 0 {
		cfg.Sync.BatchDelaySeconds = 1
	}
	if cfg.Sync.CreateDelaySeconds == 0 {
		cfg.Sync.CreateDelaySeconds = 1
	}
	if cfg.Retry.LongWaitSeconds <= 0 {
		cfg.Retry.LongWaitSeconds = 300
	}
	if cfg.Retry.ShortWaitSeconds <= 0 {
		cfg.Retry.ShortWaitSeconds = 30
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
