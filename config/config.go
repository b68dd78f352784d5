// Package config loads provider configuration from the environment.
//
// Every key maps one to one onto an environment variable:
//
//	FUNCTIONAL_STAGE          deployment stage (default "dev")
//	FUNCTIONAL_BASE_URL       base URL for HTTP-routed outbound invokes
//	FUNCTIONAL_ACCESS_KEY     function key for authenticated outbound invokes
//	FUNCTIONAL_SERVICE_<NAME> per-service target override
//	LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT
//	LISTEN_ADDRESS            local development server address
//	FUNCTIONS_CUSTOMHANDLER_PORT  port assigned by the Azure Functions host
package config

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/bjaus/invoke"
)

const (
	KeyStage     = "FUNCTIONAL_STAGE"
	KeyBaseURL   = "FUNCTIONAL_BASE_URL"
	KeyAccessKey = "FUNCTIONAL_ACCESS_KEY"
	KeyListen    = "LISTEN_ADDRESS"

	servicePrefix = "FUNCTIONAL_SERVICE_"
)

// Config holds the environment-derived settings shared by provider families.
type Config struct {
	Stage     string    `mapstructure:"functional_stage" validate:"required"`
	BaseURL   string    `mapstructure:"functional_base_url" validate:"omitempty,url"`
	AccessKey string    `mapstructure:"functional_access_key"`
	Listen    string    `mapstructure:"listen_address" validate:"required"`
	Log       LogConfig `mapstructure:",squash"`

	// HandlerPort is set by the Azure Functions host for custom handlers.
	HandlerPort string `mapstructure:"functions_customhandler_port" validate:"omitempty,numeric"`

	v *viper.Viper
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level      string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"log_format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"log_output" validate:"required"`
}

// Option customizes loading.
type Option func(*viper.Viper) error

// WithValues sets keys explicitly. Explicit values take precedence over the
// environment; tests use this instead of mutating process state.
func WithValues(values map[string]string) Option {
	return func(v *viper.Viper) error {
		for k, val := range values {
			v.Set(k, val)
		}
		return nil
	}
}

// WithDotenv reads .env style files as defaults. Real environment variables
// still win.
func WithDotenv(paths ...string) Option {
	return func(v *viper.Viper) error {
		for _, path := range paths {
			env, err := gotenv.Read(path)
			if err != nil {
				return fmt.Errorf("read dotenv: %w", err)
			}
			for k, val := range env {
				v.SetDefault(k, val)
			}
		}
		return nil
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New()
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		return strings.ToUpper(name)
	})
	return vd
}

// Load reads configuration from the environment.
func Load(opts ...Option) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	cfg := Config{v: v}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("functional_stage", "dev")
	v.SetDefault("functional_base_url", "")
	v.SetDefault("functional_access_key", "")
	v.SetDefault("listen_address", ":3000")
	v.SetDefault("functions_customhandler_port", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_output", "stdout")
}

// Validate checks field constraints. The first violation is reported as a
// *invoke.ConfigurationError naming the environment variable.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	e := verrs[0]
	return &invoke.ConfigurationError{Key: e.Field(), Msg: formatFieldError(e)}
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return ""
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return fmt.Sprintf("fails %q constraint", e.Tag())
	}
}

// ServiceOverride returns the FUNCTIONAL_SERVICE_<NAME> value for a
// service. NAME is the service name upper-cased with every character other
// than letters and digits replaced by an underscore.
func (c *Config) ServiceOverride(service string) (string, bool) {
	if c == nil || c.v == nil {
		return "", false
	}
	s := c.v.GetString(ServiceKey(service))
	return s, s != ""
}

// ServiceKey returns the override variable name for a service.
func ServiceKey(service string) string {
	var b strings.Builder
	b.WriteString(servicePrefix)
	for _, r := range service {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RequireAccessKey returns the access key or a ConfigurationError when it
// is unset.
func (c *Config) RequireAccessKey() (string, error) {
	if c == nil || c.AccessKey == "" {
		return "", &invoke.ConfigurationError{Key: KeyAccessKey}
	}
	return c.AccessKey, nil
}
