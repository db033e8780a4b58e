package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the file access the loader needs; tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a dotenv file. Variables already set in the process win.
func (RealFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// Resolver locates the config and dotenv files of a run.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the paths chosen by a Resolver. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches for the others, first next
// to the command under ./cmd/<name>, then in ./config and the working
// directory.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	dirs := []string{"./cmd/" + name, "./config", "."}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(dirs, "config.yml", "config.yaml")
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(dirs, ".env."+name, ".env")
	}
	return files
}

func (r *Resolver) first(dirs []string, names ...string) string {
	for _, n := range names {
		for _, d := range dirs {
			p := d + "/" + n
			if r.FileSystem.Exists(p) {
				return p
			}
		}
	}
	return ""
}

// LoaderConfig collects the options of one load.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// Warnings receives non-fatal problems such as an unreadable dotenv
	// file. Defaults to os.Stderr.
	Warnings io.Writer
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search and reads path. A missing file is not an
// error; the run then relies on defaults and the environment.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

func WithWarnings(w io.Writer) LoaderOption {
	return func(lc *LoaderConfig) { lc.Warnings = w }
}

// Defaulter is implemented by configs that fill zero-valued fields.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by configs that check themselves after loading.
type Validator interface {
	Validate() error
}

// Load reads a new T with LoadConfig, then applies its defaults and
// validates it when T implements Defaulter and Validator.
func Load[T any](name string, opts ...LoaderOption) (*T, error) {
	cfg := new(T)
	if err := LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	if d, ok := any(cfg).(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := any(cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return cfg, nil
}

// LoadConfig fills cfg from, in rising precedence, the config file, the
// dotenv file and the process environment.
//
// Every key of cfg can be set from the environment, with or without the
// upper-cased name as prefix: kafka.brokers reads ROUNDTRIP_KAFKA_BROKERS,
// then KAFKA_BROKERS.
func LoadConfig(name string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}, Warnings: os.Stderr}
	for _, opt := range opts {
		opt(&lc)
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(name, lc)

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", files.ConfigFile, err)
		}
	}
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			fmt.Fprintf(lc.Warnings, "[config] warning: skipping %s: %v\n", files.EnvFile, err)
		}
	}

	prefix := envPrefix(name)
	for _, key := range configKeys(reflect.TypeOf(cfg), "") {
		env := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefix+env, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode %s config: %w", name, err)
	}
	return nil
}

func envPrefix(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(base)) + "_"
}

var timeType = reflect.TypeOf(time.Time{})

// configKeys lists the dotted viper keys of every leaf field of t, following
// mapstructure tags. Squashed structs share the parent prefix.
func configKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			if strings.Contains(opts, "squash") || f.Anonymous && name == "" {
				keys = append(keys, configKeys(ft, prefix)...)
				continue
			}
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			keys = append(keys, configKeys(ft, prefix+name+".")...)
			continue
		}
		keys = append(keys, prefix+name)
	}
	return keys
}
