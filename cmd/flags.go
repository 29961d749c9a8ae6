package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func configFlag(v *viper.Viper) string {
	return v.GetString("config")
}

func storagePathFlag(v *viper.Viper) string {
	return v.GetString("storage.path")
}

func addStoragePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-path", "./storage/app", "Application storage path the backup directory is resolved against")
	_ = v.BindPFlag("storage.path", flags.Lookup("storage-path"))
	_ = v.BindEnv("storage.path", "BACKUP_STORAGE_PATH")
}

func directoryFlag(v *viper.Viper) string {
	return v.GetString("directory")
}

func addDirectoryFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("directory", "backups", "Backup directory, relative to the storage path unless absolute")
	_ = v.BindPFlag("directory", flags.Lookup("directory"))
	_ = v.BindEnv("directory", "BACKUP_DIRECTORY")
}

func retentionDaysFlag(v *viper.Viper) int {
	return v.GetInt("retention_days")
}

func addRetentionDaysFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("retention-days", 30, "Number of days to keep backups")
	_ = v.BindPFlag("retention_days", flags.Lookup("retention-days"))
	_ = v.BindEnv("retention_days", "BACKUP_RETENTION_DAYS")
}

func autoCleanupFlag(v *viper.Viper) bool {
	return v.GetBool("auto_cleanup")
}

func addAutoCleanupFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("auto-cleanup", true, "Remove expired backups after each new backup")
	_ = v.BindPFlag("auto_cleanup", flags.Lookup("auto-cleanup"))
	_ = v.BindEnv("auto_cleanup", "BACKUP_AUTO_CLEANUP")
}

func appRootFlag(v *viper.Viper) string {
	return v.GetString("app_root")
}

func addAppRootFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("app-root", ".", "Application root used to locate originals of unrecorded backups")
	_ = v.BindPFlag("app_root", flags.Lookup("app-root"))
	_ = v.BindEnv("app_root", "BACKUP_APP_ROOT")
}

func recordsTypeFlag(v *viper.Viper) string {
	return v.GetString("records.type")
}

func addRecordsTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-type", "filesystem", "Backup record storage type: filesystem or blob")
	_ = v.BindPFlag("records.type", flags.Lookup("records-type"))
	_ = v.BindEnv("records.type", "BACKUP_RECORDS_TYPE")
}

func recordsURLFlag(v *viper.Viper) string {
	return v.GetString("records.url")
}

func addRecordsURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-url", "", "Blob bucket URL for backup records (file:// or mem://)")
	_ = v.BindPFlag("records.url", flags.Lookup("records-url"))
	_ = v.BindEnv("records.url", "BACKUP_RECORDS_URL")
}

func cleanupIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("cleanup_interval")
}

func addCleanupIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("cleanup-interval", 24*time.Hour, "Interval between periodic cleanup sweeps")
	_ = v.BindPFlag("cleanup_interval", flags.Lookup("cleanup-interval"))
	_ = v.BindEnv("cleanup_interval", "BACKUP_CLEANUP_INTERVAL")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", "127.0.0.1:8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "BACKUP_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/filebackup", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "BACKUP_BASE_PATH")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "BACKUP_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}
