package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DevelopmentEnv is the environment in which rejected calls are reported
// as errors rather than logged.
const DevelopmentEnv = "development"

// Settings is the resolved CLI configuration.
type Settings struct {
	Env     string
	Strict  bool
	Backend string
	Dir     string
	Indent  string
	S3      S3Settings
}

type S3Settings struct {
	Bucket   string
	Prefix   string
	Endpoint string
	Region   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", DevelopmentEnv)
	v.SetDefault("backend", "file")
	v.SetDefault("dir", ".")
	v.SetDefault("indent", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
}

// initConfig layers flags over DEVJSON_* environment variables over the
// optional config file over defaults.
func initConfig(v *viper.Viper, flags *pflag.FlagSet, cfgFile string) error {
	setDefaults(v)
	v.SetEnvPrefix("DEVJSON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, flag := range map[string]string{
		"strict":      "strict",
		"backend":     "backend",
		"dir":         "dir",
		"indent":      "indent",
		"s3.bucket":   "s3-bucket",
		"s3.prefix":   "s3-prefix",
		"s3.endpoint": "s3-endpoint",
		"s3.region":   "s3-region",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	log.Debugf("Using config file: %s", v.ConfigFileUsed())
	return nil
}

// newSettingsFromViper resolves settings. An explicit strict setting wins;
// otherwise strictness follows the environment.
func newSettingsFromViper(v *viper.Viper) Settings {
	s := Settings{
		Env:     v.GetString("env"),
		Backend: v.GetString("backend"),
		Dir:     v.GetString("dir"),
		Indent:  v.GetString("indent"),
		S3: S3Settings{
			Bucket:   v.GetString("s3.bucket"),
			Prefix:   v.GetString("s3.prefix"),
			Endpoint: v.GetString("s3.endpoint"),
			Region:   v.GetString("s3.region"),
		},
	}
	if v.IsSet("strict") {
		s.Strict = v.GetBool("strict")
	} else {
		s.Strict = s.Env == DevelopmentEnv
	}
	return s
}
