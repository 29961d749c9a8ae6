package requests

// CreateBackup - back up a single file
type CreateBackup struct {
	// file to back up, relative paths resolve against the server's working dir
	Path string `json:"path"`
}

// RestoreFromBackup - restore a backup
type RestoreFromBackup struct {
	Backup string `json:"backup"`
	// where to restore to; empty restores to the original location
	Target string `json:"target,omitempty"`
}

// CleanupOldBackups - purge expired backups
type CleanupOldBackups struct {
	// nil uses the configured retention
	RetentionDays *int `json:"retentionDays,omitempty"`
}

// GetBackupsForFile - list backups of a file
type GetBackupsForFile struct {
	Path string `json:"path"`
}

// GetBackupDirectory - query the backup root
type GetBackupDirectory struct{}
