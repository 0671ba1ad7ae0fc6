package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/lhecker/tumblr-dl/config"
	"github.com/lhecker/tumblr-dl/database"
	"github.com/lhecker/tumblr-dl/downloader"
	"github.com/lhecker/tumblr-dl/tumblr"
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	configFile string
	silent     bool

	rootCmd = &cobra.Command{
		Use:     "tumblr-dl",
		Short:   "Download Tumblr posts together with their original media",
		Version: version.String(),
	}
)

func init() {
	// By setting these members here we break an initialization loop between rootCmd (C) and rootPersistentPreRunE (R):
	// Otherwise C refers to R which in turn refers back to C, in the implementation of the silent flag.
	rootCmd.PersistentPreRunE = rootPersistentPreRunE
	rootCmd.PersistentPostRun = rootPersistentPostRun

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", `config file (default "./tumblr.toml")`)
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, `Silent or quiet mode`)
}

func rootPersistentPreRunE(cmd *cobra.Command, args []string) error {
	if silent {
		rootCmd.SilenceErrors = true
		rootCmd.SilenceUsage = true
		log.SetOutput(io.Discard)
	}

	for _, f := range []func() error{
		initConfig,
		initHTTPClient,
		initDatabase,
		initClients,
	} {
		err := f()
		if err != nil {
			return err
		}
	}

	return nil
}

func rootPersistentPostRun(cmd *cobra.Command, args []string) {
	for _, f := range []func(){
		deinitDatabase,
	} {
		f()
	}
}

func initConfig() error {
	if len(configFile) != 0 {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("tumblr")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	for key, value := range config.Defaults() {
		viper.SetDefault(key, value)
	}

	err := viper.ReadInConfig()
	if err != nil {
		// The config file is optional unless it was given explicitly.
		var notFound viper.ConfigFileNotFoundError
		if len(configFile) != 0 || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %v", err)
		}
	}

	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return err
	}

	singletons.Config = cfg
	return nil
}

func decodeConfig(v *viper.Viper) (*config.Config, error) {
	cfg := &config.Config{}

	err := v.Unmarshal(
		cfg,
		func(config *mapstructure.DecoderConfig) {
			config.TagName = "toml"
			config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	switch {
	case cfg.Concurrency <= 0:
		return nil, fmt.Errorf("invalid concurrency: %d", cfg.Concurrency)
	case cfg.ParseWorkers <= 0:
		return nil, fmt.Errorf("invalid parse_workers: %d", cfg.ParseWorkers)
	case cfg.RequestsPerSecond < 0:
		return nil, fmt.Errorf("invalid requests_per_second: %v", cfg.RequestsPerSecond)
	}

	return cfg, nil
}

func initHTTPClient() error {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return err
	}

	singletons.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 60 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: singletons.Config.Timeout,
		Jar:     jar,
	}
	return nil
}

func initDatabase() (err error) {
	singletons.Database, err = database.NewDatabase(singletons.Config.Database)
	return
}

func deinitDatabase() {
	if singletons.Database == nil {
		return
	}

	err := singletons.Database.Close()
	if err != nil {
		log.Printf("failed to close database: %v", err)
	}
	singletons.Database = nil
}

func initClients() error {
	cfg := singletons.Config

	tokenState := &tumblr.TokenState{}
	token, err := singletons.Database.GetAPIToken()
	if err != nil {
		log.Printf("failed to get api token: %v", err)
	} else if len(token) != 0 {
		tokenState.SetToken(token)
	}

	singletons.Client = tumblr.NewClient(
		singletons.HTTPClient,
		tumblr.WithUserAgent(cfg.UserAgent),
		tumblr.WithRateLimit(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst),
		tumblr.WithParseWorkers(cfg.ParseWorkers),
		tumblr.WithTokenState(tokenState),
	)

	opts := []downloader.Option{
		downloader.WithConcurrency(cfg.Concurrency),
		downloader.WithUserAgent(singletons.Client.UserAgent()),
	}
	if cfg.Progress && !silent {
		opts = append(opts, downloader.WithProgress(os.Stderr))
	}
	singletons.Downloader = downloader.New(singletons.HTTPClient, opts...)

	return nil
}
