package config

const (
	// DefaultDatabasePath is the default path for the course records database
	DefaultDatabasePath = "./course-records.db"

	// DefaultBackupSchedule runs backups daily at 02:00
	DefaultBackupSchedule = "0 2 * * *"
)
