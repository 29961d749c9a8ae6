package handler

// Route type
type Route string

const (
	// RouteCreateBackup back up a file
	RouteCreateBackup Route = "createBackup"
	// RouteRestoreFromBackup restore a backup
	RouteRestoreFromBackup Route = "restoreFromBackup"
	// RouteCleanupOldBackups purge expired backups
	RouteCleanupOldBackups Route = "cleanupOldBackups"
	// RouteGetBackupsForFile list the backups of a file
	RouteGetBackupsForFile Route = "getBackupsForFile"
	// RouteGetBackupDirectory get the backup root
	RouteGetBackupDirectory Route = "getBackupDirectory"
)
