package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SSHRELEASE_"

const targetsKey = "targets"

// ConfigFileNames are looked up, in order, in the working directory.
var ConfigFileNames = []string{
	"sshrelease.toml",
	".sshrelease.toml",
	"sshrelease.yaml",
	"sshrelease.yml",
}

// LoadOptions controls Load.
type LoadOptions struct {
	// File is the config file to read. Empty means FindConfigFile(".").
	File string
	// Target selects a [targets.<name>] section merged over the top level.
	Target string
	// Overrides are applied last, keyed like the config file.
	Overrides map[string]interface{}
	// SkipEnv disables SSHRELEASE_* environment variables.
	SkipEnv bool
}

// DefaultOptions returns the embedded defaults, with a timestamp tag
// generator as the fallback release tag.
func DefaultOptions() Options {
	k := koanf.New(".")
	var opts Options
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err == nil {
		_ = unmarshal(k, &opts)
	}
	opts.TagFunc = TimestampTag()
	return opts
}

// Load reads the layered configuration: embedded defaults, the config
// file, the selected target section, environment variables and finally
// explicit overrides.
func Load(opts LoadOptions) (Options, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return Options{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	path := opts.File
	if path == "" {
		path = FindConfigFile(".")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return Options{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
		}
	}

	if opts.Target != "" {
		section := targetsKey + "." + opts.Target
		if !k.Exists(section) {
			return Options{}, errors.Newf(errors.ErrConfigLoad, "target %q not found in %s", opts.Target, describe(path))
		}
		if err := k.Merge(k.Cut(section)); err != nil {
			return Options{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to merge target %q", opts.Target)
		}
	}
	k.Delete(targetsKey)

	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return Options{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
		}
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return Options{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var out Options
	if err := unmarshal(k, &out); err != nil {
		return Options{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}
	out.PrivateKeyFile = expandHome(out.PrivateKeyFile)
	out.KnownHostsFile = expandHome(out.KnownHostsFile)
	return out, nil
}

// LoadAndResolve is Load followed by Resolve against DefaultOptions.
func LoadAndResolve(opts LoadOptions) (*DeploymentConfig, error) {
	user, err := Load(opts)
	if err != nil {
		return nil, err
	}
	return Resolve(DefaultOptions(), user)
}

// FindConfigFile returns the first config file found in dir, then in the
// user's XDG config directory, or "" when there is none.
func FindConfigFile(dir string) string {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	userPath := filepath.Join(configHome, "sshrelease", "config.toml")
	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}
	return ""
}

func unmarshal(k *koanf.Koanf, out *Options) error {
	return k.UnmarshalWithConf("", out, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           out,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				numberToMillisecondsHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				stringToShareEntryHookFunc(),
			),
		},
	})
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envKey maps SSHRELEASE_DEPLOY_PATH to deploy_path and
// SSHRELEASE_HOOKS__AFTER_DEPLOY to hooks.after_deploy.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// stringToShareEntryHookFunc accepts the `uploads = "web/uploads"`
// shorthand for share entries.
func stringToShareEntryHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(ShareEntry{}) {
			return data, nil
		}
		return ShareEntry{Symlink: data.(string)}, nil
	}
}

// numberToMillisecondsHookFunc reads bare numbers as milliseconds, so
// ready_timeout = 20000 means twenty seconds.
func numberToMillisecondsHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		case string:
			if ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return time.Duration(ms) * time.Millisecond, nil
			}
		}
		return data, nil
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func describe(path string) string {
	if path == "" {
		return "the configuration"
	}
	return fmt.Sprintf("%q", path)
}
