package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string        `mapstructure:"ENV"`
	Port        string        `mapstructure:"PORT"`
	AdminKey    string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	Timeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	AsiteLoginURL  string `mapstructure:"ASITE_LOGIN_URL"`
	AsiteSearchURL string `mapstructure:"ASITE_SEARCH_URL"`
	AsiteEmail     string `mapstructure:"ASITE_EMAIL"`
	AsitePassword  string `mapstructure:"ASITE_PASSWORD"`
	AsitePageSize  int    `mapstructure:"ASITE_PAGE_SIZE"`
	ProjectName    string `mapstructure:"PROJECT_NAME"`
	FormName       string `mapstructure:"FORM_NAME"`

	WatsonxURL       string `mapstructure:"WATSONX_API_URL"`
	WatsonxTokenURL  string `mapstructure:"WATSONX_TOKEN_URL"`
	WatsonxAPIKey    string `mapstructure:"WATSONX_API_KEY"`
	WatsonxModelID   string `mapstructure:"MODEL_ID"`
	WatsonxProjectID string `mapstructure:"WATSONX_PROJECT_ID"`

	NCRChunkSize     int `mapstructure:"CHUNK_SIZE"`
	KeywordChunkSize int `mapstructure:"KEYWORD_CHUNK_SIZE"`

	// UseMocks swaps both upstreams for deterministic in-process fakes.
	// Meant for local development; reports built from mock data carry no
	// real records.
	UseMocks bool `mapstructure:"USE_MOCKS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "120s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("ASITE_PAGE_SIZE", 1000)
	v.SetDefault("PROJECT_NAME", "Eden")
	v.SetDefault("FORM_NAME", "NCR")
	v.SetDefault("WATSONX_TOKEN_URL", "https://iam.cloud.ibm.com/identity/token")
	v.SetDefault("CHUNK_SIZE", 20)
	v.SetDefault("KEYWORD_CHUNK_SIZE", 10)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on missing or partial upstream configuration. Both
// upstreams are required unless USE_MOCKS is set, so a misconfigured
// deployment halts instead of silently serving synthetic data.
func (c Config) Validate() error {
	if c.UseMocks {
		return nil
	}
	if c.WatsonxURL == "" {
		return errors.New("WATSONX_API_URL is required (set USE_MOCKS=true for offline runs)")
	}
	if c.WatsonxAPIKey == "" {
		return errors.New("WATSONX_API_KEY is required")
	}
	if c.WatsonxModelID == "" {
		return errors.New("MODEL_ID is required")
	}
	if c.WatsonxProjectID == "" {
		return errors.New("WATSONX_PROJECT_ID is required")
	}
	if c.AsiteSearchURL == "" {
		return errors.New("ASITE_SEARCH_URL is required (set USE_MOCKS=true for offline runs)")
	}
	if c.AsiteLoginURL == "" {
		return errors.New("ASITE_LOGIN_URL is required")
	}
	if c.AsiteEmail == "" || c.AsitePassword == "" {
		return errors.New("ASITE_EMAIL and ASITE_PASSWORD are required")
	}
	return nil
}
