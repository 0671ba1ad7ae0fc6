package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lhecker/tumblr-dl/config"
	"github.com/lhecker/tumblr-dl/database"
	"github.com/lhecker/tumblr-dl/downloader"
	"github.com/lhecker/tumblr-dl/tumblr"
)

var (
	// This structure gets (de)initialized in the prerun and postrun hooks of the rootCmd.
	singletons = struct {
		Config     *config.Config
		Database   *database.Database
		HTTPClient *http.Client
		Client     *tumblr.Client
		Downloader *downloader.Downloader
	}{}
)

func terminationSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
}

func isContextCanceledError(err error) bool {
	return errors.Is(err, context.Canceled)
}
