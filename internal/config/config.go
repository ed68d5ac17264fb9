// Package config carga la configuración del servicio: YAML como base,
// variables de entorno como override. Los secretos (client secrets,
// claves de firma, SMTP) solo entran por entorno.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | mongo | postgres
		Driver string `yaml:"driver"`
		Mongo  struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		Secret    string `yaml:"-"` // solo por env: JWT_SECRET
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	IDP struct {
		// rest | dev
		Backend string `yaml:"backend"`
		// Endpoint del servicio de cuentas gestionadas (backend rest).
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"-"` // solo por env: IDP_API_KEY
		// TTL de credenciales pendientes y flujos federados.
		CredentialTTL string `yaml:"credential_ttl"`
		FlowTTL       string `yaml:"flow_ttl"`
	} `yaml:"idp"`

	Providers struct {
		Google   ProviderConfig `yaml:"google"`
		Facebook ProviderConfig `yaml:"facebook"`
		GitHub   ProviderConfig `yaml:"github"`
	} `yaml:"providers"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Limit   int    `yaml:"limit"`
		Window  string `yaml:"window"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"-"` // solo por env: SMTP_PASSWORD
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// ProviderConfig son las credenciales OAuth de un provider federado.
type ProviderConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"-"` // solo por env
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// Load lee el YAML (opcional: path vacío usa solo defaults + env) y
// aplica overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "linguala"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "15m"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "linguala"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.IDP.Backend == "" {
		c.IDP.Backend = "dev"
	}
	if c.IDP.CredentialTTL == "" {
		c.IDP.CredentialTTL = "10m"
	}
	if c.IDP.FlowTTL == "" {
		c.IDP.FlowTTL = "15m"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 10
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if len(c.Providers.Google.Scopes) == 0 {
		c.Providers.Google.Scopes = []string{"openid", "email", "profile"}
	}

	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnvOverrides pisa el YAML con variables de entorno. Los secretos
// SOLO entran por acá.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	if v, ok := getEnvStr("IDP_BACKEND"); ok {
		c.IDP.Backend = v
	}
	if v, ok := getEnvStr("IDP_ENDPOINT"); ok {
		c.IDP.Endpoint = v
	}
	if v, ok := getEnvStr("IDP_API_KEY"); ok {
		c.IDP.APIKey = v
	}

	c.Providers.Google.applyEnv("GOOGLE")
	c.Providers.Facebook.applyEnv("FACEBOOK")
	c.Providers.GitHub.applyEnv("GITHUB")

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

func (p *ProviderConfig) applyEnv(prefix string) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
		p.Enabled = true
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URL"); ok {
		p.RedirectURL = v
	}
}

func (c *Config) validate() error {
	for _, d := range []string{c.JWT.AccessTTL, c.IDP.CredentialTTL, c.IDP.FlowTTL, c.Rate.Window, c.Cache.Memory.DefaultTTL} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return err
		}
	}
	switch c.Storage.Driver {
	case "memory", "mongo", "postgres":
	default:
		return errors.New("config: storage.driver debe ser memory, mongo o postgres")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return errors.New("config: cache.kind debe ser memory o redis")
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New("config: cache.redis.addr es obligatorio con cache redis")
	}
	if c.IDP.Backend == "rest" && c.IDP.Endpoint == "" {
		return errors.New("config: idp.endpoint es obligatorio con backend rest")
	}
	if strings.EqualFold(c.App.Env, "prod") {
		if len(c.JWT.Secret) < 32 {
			return errors.New("config: JWT_SECRET debe tener al menos 32 bytes en prod")
		}
		if c.IDP.Backend == "dev" {
			return errors.New("config: idp.backend dev no está permitido en prod")
		}
	}
	return nil
}

// Duration parsea una duración ya validada. Para campos con default
// garantizado por Load.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
