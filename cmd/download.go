package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lhecker/tumblr-dl/tumblr"
)

var (
	force bool

	downloadCmd = &cobra.Command{
		Use:     "download <url>...",
		Short:   "Download posts and their original media",
		Example: "tumblr-dl download https://www.tumblr.com/justcatposts/748474744137007104",
		Args:    cobra.MinimumNArgs(1),
		RunE:    downloadRunE,
	}
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	flags := downloadCmd.Flags()
	flags.BoolVarP(&force, "force", "f", false, `Download posts again even if they were downloaded before`)
	flags.StringP("output", "o", ".", `Directory to download posts into`)
	flags.Bool("progress", false, `Show a progress bar`)

	for _, name := range []string{"output", "progress"} {
		err := viper.BindPFlag(name, flags.Lookup(name))
		if err != nil {
			panic(err)
		}
	}
}

type postTarget struct {
	blogIdentifier string
	postID         uint64
}

func downloadRunE(cmd *cobra.Command, args []string) error {
	ctx, cancel := terminationSignalContext()
	defer cancel()

	err := downloadPosts(ctx, args)
	if err != nil && isContextCanceledError(err) {
		log.Println("canceled")
	}
	return err
}

// downloadPosts validates all URLs before it downloads the first post.
func downloadPosts(ctx context.Context, urls []string) error {
	targets := make([]postTarget, 0, len(urls))
	for _, u := range urls {
		blogIdentifier, postID, err := tumblr.ParsePostURL(u)
		if err != nil {
			return fmt.Errorf("failed to parse url: %w", err)
		}
		targets = append(targets, postTarget{blogIdentifier, postID})
	}

	for _, t := range targets {
		err := downloadPost(ctx, t)
		if err != nil {
			return err
		}
	}

	return nil
}

func downloadPost(ctx context.Context, t postTarget) error {
	if !force {
		at, ok, err := singletons.Database.DownloadedAt(t.blogIdentifier, t.postID)
		if err != nil {
			return err
		}
		if ok {
			log.Printf("%s: skipping %d, downloaded at %s", t.blogIdentifier, t.postID, at.Format(time.RFC3339))
			return nil
		}
	}

	log.Printf("%s: scraping %d", t.blogIdentifier, t.postID)

	post, err := singletons.Client.ScrapePost(ctx, t.blogIdentifier, t.postID)
	if err != nil {
		return fmt.Errorf("failed to scrape post: %w", err)
	}

	_, err = singletons.Downloader.DownloadPost(ctx, singletons.Config.Output, post)
	if err != nil {
		return fmt.Errorf("failed to download post: %w", err)
	}

	return singletons.Database.MarkDownloaded(t.blogIdentifier, t.postID, time.Now())
}
