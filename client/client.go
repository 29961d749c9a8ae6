package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/foomo/filebackup/pkg/handler"
	"github.com/foomo/filebackup/requests"
	"github.com/foomo/filebackup/responses"
)

// Client a backup server client
type Client struct {
	t transport
}

// NewHTTPClient constructs a new client to talk to the backup server
// mounted at server, e.g. http://localhost:8080/filebackup
func NewHTTPClient(server string) (*Client, error) {
	return NewHTTPClientWithClient(server, http.DefaultClient)
}

func NewHTTPClientWithClient(server string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("unsupported url scheme: " + u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host in url: " + server)
	}
	return &Client{t: NewHTTPTransport(server, httpClient)}, nil
}

// CreateBackup backs up the file at path on the server
func (c *Client) CreateBackup(ctx context.Context, path string) (*responses.CreateBackup, error) {
	res := &responses.CreateBackup{}
	if err := c.t.call(ctx, handler.RouteCreateBackup, &requests.CreateBackup{Path: path}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// RestoreFromBackup restores a backup; an empty target restores to the original location
func (c *Client) RestoreFromBackup(ctx context.Context, backupPath, target string) (*responses.RestoreFromBackup, error) {
	res := &responses.RestoreFromBackup{}
	req := &requests.RestoreFromBackup{Backup: backupPath, Target: target}
	if err := c.t.call(ctx, handler.RouteRestoreFromBackup, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// CleanupOldBackups removes expired backups; nil retentionDays uses the server's default
func (c *Client) CleanupOldBackups(ctx context.Context, retentionDays *int) (*responses.CleanupOldBackups, error) {
	res := &responses.CleanupOldBackups{}
	req := &requests.CleanupOldBackups{RetentionDays: retentionDays}
	if err := c.t.call(ctx, handler.RouteCleanupOldBackups, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetBackupsForFile lists the backups of path, newest first
func (c *Client) GetBackupsForFile(ctx context.Context, path string) ([]string, error) {
	res := &responses.GetBackupsForFile{}
	if err := c.t.call(ctx, handler.RouteGetBackupsForFile, &requests.GetBackupsForFile{Path: path}, res); err != nil {
		return nil, err
	}
	return res.Backups, nil
}

// GetBackupDirectory returns the server's backup root
func (c *Client) GetBackupDirectory(ctx context.Context) (string, error) {
	res := &responses.GetBackupDirectory{}
	if err := c.t.call(ctx, handler.RouteGetBackupDirectory, &requests.GetBackupDirectory{}, res); err != nil {
		return "", err
	}
	return res.Directory, nil
}

// ShutDown closes idle connections
func (c *Client) ShutDown() {
	c.t.shutdown()
}
