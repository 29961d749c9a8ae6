package responses

// CreateBackup - the backup that was written
type CreateBackup struct {
	Backup string `json:"backup"`
	// number of expired backups removed afterwards when auto cleanup is on
	Cleaned int `json:"cleaned"`
}

// RestoreFromBackup - where the backup went
type RestoreFromBackup struct {
	Success    bool   `json:"success"`
	RestoredTo string `json:"restoredTo"`
}

// CleanupOldBackups - how many backups were removed
type CleanupOldBackups struct {
	Deleted       int `json:"deleted"`
	RetentionDays int `json:"retentionDays"`
}

// GetBackupsForFile - backups, newest first
type GetBackupsForFile struct {
	Backups []string `json:"backups"`
}

// GetBackupDirectory - the backup root
type GetBackupDirectory struct {
	Directory string `json:"directory"`
}
