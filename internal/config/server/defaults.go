package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "gopublish.db",
			},
		},

		Anatomy: AnatomyServerConfig{
			Project: "",
			Roots: map[string]string{
				"work": "/mnt/projects",
			},
			Templates: map[string]string{
				"default": "{root[work]}/{project}/{folder}/publish/" +
					"{product}/v{version:0>3}/{product}_v{version:0>3}<.{frame:0>4}><.{udim}>.{ext}",
			},
		},

		Publish: PublishServerConfig{
			TransferMode:      "copy",
			TransferWorkers:   8,
			AllowReplacements: false,
			DefaultTemplate:   "default",
		},

		Watch: WatchServerConfig{
			Enabled:     false,
			Paths:       nil,
			Pattern:     "*.json",
			SettleDelay: "2s",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("anatomy.project", defaults.Anatomy.Project)
	viper.SetDefault("anatomy.roots", defaults.Anatomy.Roots)
	viper.SetDefault("anatomy.templates", defaults.Anatomy.Templates)

	viper.SetDefault("publish.transfer_mode", defaults.Publish.TransferMode)
	viper.SetDefault("publish.transfer_workers", defaults.Publish.TransferWorkers)
	viper.SetDefault("publish.allow_replacements", defaults.Publish.AllowReplacements)
	viper.SetDefault("publish.default_template", defaults.Publish.DefaultTemplate)

	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.paths", defaults.Watch.Paths)
	viper.SetDefault("watch.pattern", defaults.Watch.Pattern)
	viper.SetDefault("watch.settle_delay", defaults.Watch.SettleDelay)
}
