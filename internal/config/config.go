package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mrlokans/courserecords/internal/adapters"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Logging
		Import
		Audit
		Backup
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Logging struct {
		Level  string
		Pretty bool
	}
	Import struct {
		UploadDir       string
		MaxUploadSizeMB int64
		DefaultStrategy adapters.ConflictStrategy
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events; 0 keeps them forever
	}
	Backup struct {
		Enabled        bool
		Schedule       string // Cron format: "0 2 * * *" = daily at 02:00
		Dir            string
		InstitutionIDs []string // Empty backs up every institution in one archive
	}
)

// MaxUploadBytes is the upload ceiling in bytes.
func (i Import) MaxUploadBytes() int64 {
	return i.MaxUploadSizeMB * 1024 * 1024
}

// NewConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func NewConfig() *Config {
	_ = godotenv.Load()
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("max_upload_size_mb", 50)
	v.SetDefault("default_conflict_strategy", string(adapters.UseTheirs))
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", DefaultBackupSchedule)
	v.SetDefault("backup_dir", "./backups")
	v.SetDefault("backup_institution_ids", "")

	strategy, err := adapters.ParseConflictStrategy(v.GetString("DEFAULT_CONFLICT_STRATEGY"), adapters.UseTheirs)
	if err != nil {
		strategy = adapters.UseTheirs
	}

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		Import: Import{
			UploadDir:       v.GetString("UPLOAD_DIR"),
			MaxUploadSizeMB: v.GetInt64("MAX_UPLOAD_SIZE_MB"),
			DefaultStrategy: strategy,
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Backup: Backup{
			Enabled:        v.GetBool("BACKUP_ENABLED"),
			Schedule:       v.GetString("BACKUP_SCHEDULE"),
			Dir:            v.GetString("BACKUP_DIR"),
			InstitutionIDs: splitList(v.GetString("BACKUP_INSTITUTION_IDS")),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
