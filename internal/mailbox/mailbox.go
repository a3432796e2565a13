// Package mailbox reads an IMAP account: the Fetcher pulls filtered
// messages and their attachments to disk, and the AutoReplier answers
// new mail while a watch session is running.
package mailbox

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// dial connects and authenticates against the configured IMAP server.
func dial(cfg config.IMAPConfig) (*client.Client, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, errors.ConfigError("imap host and username must be configured", nil)
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var c *client.Client
	var err error
	if cfg.UseSSL {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, errors.NetworkError(fmt.Sprintf("failed to connect to %s", addr), err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, errors.New(errors.ErrCodeFetchFailed, "imap login failed", err)
	}
	return c, nil
}

// attachmentAllowed applies the configured type and size filters.
// An empty type list allows everything.
func attachmentAllowed(name string, size int64, types []string, maxSize int64) bool {
	if maxSize > 0 && size > maxSize {
		return false
	}
	if len(types) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if !strings.HasPrefix(t, ".") {
			t = "." + t
		}
		if ext == t {
			return true
		}
	}
	return false
}

// subjectMatches reports whether the subject passes the configured
// substring filter (case-insensitive; empty filter matches all).
func subjectMatches(subject, contains string) bool {
	if contains == "" {
		return true
	}
	return strings.Contains(strings.ToLower(subject), strings.ToLower(contains))
}

// addressString renders the first address of an envelope field.
func addressString(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0].Address()
}
