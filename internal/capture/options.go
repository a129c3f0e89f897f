package capture

import (
	"time"

	"buildcap/internal/config"
	"buildcap/internal/csargs"
	"buildcap/internal/invocation"
	"buildcap/internal/refcache"

	"go.uber.org/zap"
)

type settings struct {
	configuration string
	platform      string
	properties    map[string]string
	timeout       time.Duration
	command       string
	args          []string
	logDir        string
	language      string
	reader        invocation.Reader
	interpreter   csargs.Interpreter
	loader        refcache.Loader
	log           *zap.SugaredLogger
}

func defaults() *settings {
	return &settings{
		configuration: "Debug",
		platform:      "Any CPU",
		language:      invocation.LanguageCSharp,
		reader:        invocation.JSONLinesReader{},
	}
}

// Option customizes a Build call.
type Option func(*settings)

// WithConfiguration sets the Configuration property, "Debug" by default.
func WithConfiguration(configuration string) Option {
	return func(s *settings) { s.configuration = configuration }
}

// WithPlatform sets the Platform property, "Any CPU" by default.
func WithPlatform(platform string) Option {
	return func(s *settings) { s.platform = platform }
}

// WithProperties adds build properties. They override Configuration and
// Platform on key collision. Repeated calls merge.
func WithProperties(properties map[string]string) Option {
	return func(s *settings) {
		if s.properties == nil {
			s.properties = make(map[string]string, len(properties))
		}
		for k, v := range properties {
			s.properties[k] = v
		}
	}
}

// WithTimeout bounds the build step.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) { s.timeout = timeout }
}

// WithDriver replaces the "dotnet msbuild" driver.
func WithDriver(command string, args ...string) Option {
	return func(s *settings) {
		s.command = command
		s.args = args
	}
}

// WithLogDir sets where the temporary structured log is written.
func WithLogDir(dir string) Option {
	return func(s *settings) { s.logDir = dir }
}

// WithLanguage selects which invocations become projects.
func WithLanguage(language string) Option {
	return func(s *settings) { s.language = language }
}

// WithReader sets how invocations are recovered from the structured log.
func WithReader(reader invocation.Reader) Option {
	return func(s *settings) { s.reader = reader }
}

// WithInterpreter sets the compiler argument interpreter.
func WithInterpreter(interpreter csargs.Interpreter) Option {
	return func(s *settings) { s.interpreter = interpreter }
}

// WithLoader sets the metadata reference loader.
func WithLoader(loader refcache.Loader) Option {
	return func(s *settings) { s.loader = loader }
}

// WithLogger sets the logger shared by every stage.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *settings) { s.log = log }
}

// WithConfig applies a loaded configuration file. Options passed after it
// still win.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.command = cfg.Driver.Command
		s.args = cfg.Driver.Args
		s.logDir = cfg.Driver.LogDir
		if cfg.Build.Configuration != "" {
			s.configuration = cfg.Build.Configuration
		}
		if cfg.Build.Platform != "" {
			s.platform = cfg.Build.Platform
		}
		WithProperties(cfg.Build.Properties)(s)
		s.timeout = cfg.Build.Timeout
		if cfg.Language != "" {
			s.language = cfg.Language
		}
		if cfg.Reader.Command != "" {
			s.reader = invocation.CommandReader{Command: cfg.Reader.Command, Args: cfg.Reader.Args}
		}
	}
}
