package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdf2word/backend/internal/client"
	"github.com/pdf2word/backend/internal/history"
	"github.com/pdf2word/backend/internal/logging"
	"github.com/pdf2word/backend/internal/models"
)

type commandContext struct {
	v *viper.Viper

	once    sync.Once
	tracker *client.Tracker
	store   history.Store
	err     error
}

func newCommandContext(v *viper.Viper) *commandContext {
	return &commandContext{v: v}
}

// ensureTracker opens the history store and builds the tracker on first use.
func (c *commandContext) ensureTracker(cmd *cobra.Command) (*client.Tracker, error) {
	c.once.Do(func() {
		logger, err := logging.New(logging.Options{
			Level:  c.v.GetString(keyLogLevel),
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			c.err = err
			return
		}

		store, err := openHistoryStore(c.v.GetString(keyHistoryStore), c.v.GetString(keyStateDir))
		if err != nil {
			c.err = err
			return
		}
		log, err := history.Open(store, logger)
		if err != nil {
			_ = store.Close()
			c.err = err
			return
		}

		httpClient := client.NewHTTPClient(c.v.GetString(keyServer))
		httpClient.Msgpack = c.v.GetBool(keyMsgpack)

		c.store = store
		c.tracker = client.New(client.Options{
			API:     httpClient,
			History: log,
			View:    newCLIView(cmd.ErrOrStderr()),
			Saver:   client.DirSaver{Dir: c.v.GetString(keyOutputDir)},
			Logger:  logger,
		})
	})
	return c.tracker, c.err
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func openHistoryStore(kind, dir string) (history.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "file":
		return history.NewFileStore(dir)
	case "sqlite":
		return history.OpenSQLite(filepath.Join(dir, "history.db"))
	default:
		return nil, fmt.Errorf("unknown history store %q (want file or sqlite)", kind)
	}
}

// resolveEntryID accepts a full history id or a unique prefix of one.
func resolveEntryID(entries []models.HistoryEntry, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty history id")
	}
	var match string
	for _, e := range entries {
		if e.ID == ref {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("history id %q is ambiguous", ref)
			}
			match = e.ID
		}
	}
	if match == "" {
		// Let the tracker report the entry as unavailable.
		return ref, nil
	}
	return match, nil
}
