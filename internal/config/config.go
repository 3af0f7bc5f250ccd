// Package config provides configuration management for the imagechat
// application.
//
// Flags are parsed from the CLI with sensible defaults. The Gemini API
// key is read from the environment (optionally via a .env file); it is
// never a flag so it cannot leak into process listings.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
)

const (
	// Version is the imagechat application version.
	Version = "0.1.0"

	// APIKeyEnv is the environment variable holding the Gemini API key.
	APIKeyEnv = "GEMINI_API_KEY"

	// Default values for CLI flags
	defaultPort     = 8080
	defaultModel    = "imagen-3.0-generate-002"
	defaultImages   = 3
	defaultLogLevel = "info"

	// Validation constraints
	minPort = 1024
	maxPort = 65535
	// The Imagen endpoint accepts 1-4 images per request.
	minImages = 1
	maxImages = 4
)

var (
	// ErrInvalidPort is returned when port is out of valid range.
	ErrInvalidPort = errors.New("port must be between 1024 and 65535")
	// ErrInvalidImages is returned when the image count is out of valid range.
	ErrInvalidImages = errors.New("images must be between 1 and 4")
	// ErrInvalidModel is returned when the model name is empty.
	ErrInvalidModel = errors.New("model must not be empty")
	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("log-level must be one of: debug, info, warn, error")
	// ErrShowHelp is returned when --help is requested.
	ErrShowHelp = errors.New("help requested")
	// ErrShowVersion is returned when --version is requested.
	ErrShowVersion = errors.New("version requested")
)

// Config holds all configuration values for the imagechat application.
type Config struct {
	// Server configuration
	Port int

	// Image generation parameters
	Model  string
	Images int

	// APIKey is the Gemini API key from the environment.
	// May be empty; generation requests then fail with the generic
	// user-facing error rather than the process refusing to start.
	APIKey string

	// Logging configuration
	LogLevel string

	// Internal flags
	showHelp    bool
	showVersion bool
}

// Parse parses CLI flags into a Config and loads the API key from the
// environment. A .env file in the working directory is honored when
// present. Returns an error if validation fails.
func Parse(args []string, output io.Writer) (*Config, error) {
	c := &Config{}

	fs := flag.NewFlagSet("imagechat", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.IntVar(&c.Port, "port", defaultPort, "HTTP server port")
	fs.StringVar(&c.Model, "model", defaultModel, "Image generation model")
	fs.IntVar(&c.Images, "images", defaultImages, "Images requested per prompt")
	fs.StringVar(&c.LogLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&c.showHelp, "help", false, "Show help message")
	fs.BoolVar(&c.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.showHelp {
		printHelp(output)
		return nil, ErrShowHelp
	}
	if c.showVersion {
		fmt.Fprintf(output, "imagechat %s\n", Version)
		return nil, ErrShowVersion
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	c.APIKey = loadAPIKey()

	return c, nil
}

// validate checks that all configuration values are within valid ranges.
func (c *Config) validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return ErrInvalidPort
	}

	if c.Images < minImages || c.Images > maxImages {
		return ErrInvalidImages
	}

	if c.Model == "" {
		return ErrInvalidModel
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// loadAPIKey reads the Gemini API key from the environment.
// A .env file is loaded first when present; a missing file is not an
// error, it simply means the key must already be in the environment.
func loadAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv(APIKeyEnv)
}

// printHelp prints usage information.
func printHelp(w io.Writer) {
	fmt.Fprintf(w, `imagechat - chat front end for Gemini image generation

USAGE:
    imagechat [FLAGS]

FLAGS:
    --port <PORT>          HTTP server port (default: %d)
    --model <MODEL>        Image generation model (default: %s)
    --images <N>           Images requested per prompt, 1-4 (default: %d)
    --log-level <LEVEL>    Log level: debug, info, warn, error (default: %s)
    --help                 Show this help message
    --version              Show version information

ENVIRONMENT:
    %s         Gemini API key (required for generation; a .env file
                           in the working directory is honored)

EXAMPLES:
    # Start with defaults
    imagechat

    # Use a custom port
    imagechat --port 3000
`,
		defaultPort, defaultModel, defaultImages, defaultLogLevel, APIKeyEnv)
}
