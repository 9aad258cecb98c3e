package archive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jlaffaye/ftp"

	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
	"climate-coverage/pkg/retry"
)

// DefaultHost is the public archive server; anonymous login.
const DefaultHost = "opendata.dwd.de:21"

const dialTimeout = 15 * time.Second

// Client retrieves listings and files from the archive over anonymous FTP.
// Every operation dials a fresh connection and runs under the bounded
// fixed-delay retry policy, so a half-dead control connection never leaks
// into the next attempt.
type Client struct {
	host    string
	policy  retry.Policy
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewClient creates an archive client. The passed policy is used as-is
// except for retry accounting, which is wired to the metrics collector.
func NewClient(host string, policy retry.Policy, logger *logging.StructuredLogger, collector *metrics.Collector) *Client {
	c := &Client{
		host:    host,
		policy:  policy,
		logger:  logger,
		metrics: collector,
	}
	c.policy.OnRetry = func(attempt uint, err error) {
		collector.ArchiveRetriesTotal.Inc()
		logger.Warn(context.Background(), "[ARCHIVE_RETRY] Retrying archive operation", logging.Fields{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return c
}

// connect dials and logs in, leaving the connection in dir.
func (c *Client) connect(dir string) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(c.host, ftp.DialWithTimeout(dialTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive %s: %w", c.host, err)
	}
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to log in to archive: %w", err)
	}
	if err := conn.ChangeDir(dir); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to change to archive directory %s: %w", dir, err)
	}
	return conn, nil
}

// List returns the file names in dir matching pattern.
func (c *Client) List(ctx context.Context, dir, pattern string) ([]string, error) {
	var names []string
	err := c.policy.Do(ctx, func() error {
		conn, err := c.connect(dir)
		if err != nil {
			return err
		}
		defer conn.Quit()

		names, err = conn.NameList(pattern)
		if err != nil {
			return fmt.Errorf("failed to list %s in %s: %w", pattern, dir, err)
		}
		return nil
	})
	if err != nil {
		c.metrics.RecordArchiveDownload("list_failed", 0)
		return nil, err
	}

	c.logger.Info(ctx, "[ARCHIVE_LIST] Retrieved file listing", logging.Fields{
		"dir":     dir,
		"pattern": pattern,
		"count":   len(names),
	})
	return names, nil
}

// FetchLines downloads a text file and returns its lines, for the small
// fixed-layout station lists.
func (c *Client) FetchLines(ctx context.Context, dir, name string) ([]string, error) {
	var lines []string
	var volume int64

	err := c.policy.Do(ctx, func() error {
		conn, err := c.connect(dir)
		if err != nil {
			return err
		}
		defer conn.Quit()

		resp, err := conn.Retr(name)
		if err != nil {
			return fmt.Errorf("failed to retrieve %s: %w", name, err)
		}
		defer resp.Close()

		lines = lines[:0]
		volume = 0
		scanner := bufio.NewScanner(resp)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			volume += int64(len(scanner.Bytes())) + 1
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed reading %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		c.metrics.RecordArchiveDownload("failed", 0)
		return nil, err
	}

	c.metrics.RecordArchiveDownload("ok", volume)
	c.logger.Info(ctx, "[ARCHIVE_FETCH] Downloaded text file", logging.Fields{
		"file":  name,
		"lines": len(lines),
		"bytes": volume,
	})
	return lines, nil
}

// FetchFile downloads a file to destPath and returns the byte count.
func (c *Client) FetchFile(ctx context.Context, dir, name, destPath string) (int64, error) {
	var volume int64
	timer := c.metrics.NewTimer(c.metrics.ArchiveDownloadDuration)

	err := c.policy.Do(ctx, func() error {
		conn, err := c.connect(dir)
		if err != nil {
			return err
		}
		defer conn.Quit()

		resp, err := conn.Retr(name)
		if err != nil {
			return fmt.Errorf("failed to retrieve %s: %w", name, err)
		}
		defer resp.Close()

		out, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", destPath, err)
		}
		defer out.Close()

		volume, err = io.Copy(out, resp)
		if err != nil {
			return fmt.Errorf("failed downloading %s: %w", name, err)
		}
		return out.Close()
	})
	timer.ObserveDuration()
	if err != nil {
		c.metrics.RecordArchiveDownload("failed", 0)
		return 0, err
	}

	c.metrics.RecordArchiveDownload("ok", volume)
	c.logger.Info(ctx, "[ARCHIVE_FETCH] Downloaded archive file", logging.Fields{
		"file":  name,
		"bytes": volume,
		"dest":  destPath,
	})
	return volume, nil
}
