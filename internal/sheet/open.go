package sheet

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/errors"
)

// Open initializes the configured sheet backend.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "google", "sheets":
		if cfg.SpreadsheetID == "" {
			return nil, errors.NewNotConfigured("store.spreadsheet_id")
		}
		if cfg.CredentialsFile == "" {
			return nil, errors.NewNotConfigured("store.credentials_file")
		}
		s, err := NewGoogleStore(ctx, cfg.SpreadsheetID, cfg.SheetName, option.WithCredentialsFile(cfg.CredentialsFile))
		if err != nil {
			return nil, errors.NewStoreUnavailable("open", err)
		}
		log.Debug().Str("driver", "google").Str("sheet", cfg.SheetName).Msg("sheet store opened")
		return s, nil
	case "", "sqlite", "sqlite3":
		if cfg.SQLitePath == "" {
			return nil, errors.NewNotConfigured("store.sqlite_path")
		}
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, errors.NewStoreUnavailable("open", err)
		}
		log.Debug().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("sheet store opened")
		return s, nil
	default:
		return nil, errors.NewInvalidRequest("unknown store driver: " + driver)
	}
}
