package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ccfrost/zenwatch/internal/config"
	"github.com/ccfrost/zenwatch/internal/history"
	"github.com/ccfrost/zenwatch/internal/lib"
	"github.com/ccfrost/zenwatch/internal/zenfolio"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const zenwatch = "zenwatch"

func newZenfolioClient(cfg config.ZenwatchConfig) *zenfolio.Client {
	return zenfolio.NewClient(zenfolio.Options{
		APIURL:            cfg.Zenfolio.APIURL,
		UserAgent:         cfg.Zenfolio.UserAgent,
		RPCTimeout:        cfg.HTTP.RPCTimeout,
		UploadTimeout:     cfg.HTTP.Timeout,
		RetryMax:          cfg.HTTP.RetryMax,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		TokenLifetime:     cfg.Zenfolio.TokenLifetime,
		Logger:            lib.Logger(),
	})
}

func backoff(cfg config.ZenwatchConfig) lib.Backoff {
	return lib.Backoff{
		Initial:     cfg.Login.InitialDelay,
		Max:         cfg.Login.MaxDelay,
		MaxAttempts: cfg.Login.MaxAttempts,
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// password returns the configured password, asking for it on a terminal if
// it is not set.
func password(cfg config.ZenwatchConfig) (string, error) {
	if cfg.Zenfolio.Password != "" {
		return cfg.Zenfolio.Password, nil
	}
	if !isTerminal() {
		return "", errors.New("zenfolio.password is not set and stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "Zenfolio password for %s: ", cfg.Zenfolio.Login)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// openHistory opens the upload history. The returned recorder is nil when
// history is disabled.
func openHistory(ctx context.Context, cfg config.ZenwatchConfig) (*history.Store, lib.Recorder, error) {
	if !cfg.History.Enabled() {
		return nil, nil, nil
	}
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// galleryID returns the configured gallery, or lets the operator pick one
// when none is set.
func galleryID(ctx context.Context, cfg config.ZenwatchConfig, client *zenfolio.Client, password string) (int64, error) {
	if cfg.Zenfolio.GalleryID != 0 {
		return cfg.Zenfolio.GalleryID, nil
	}
	if !isTerminal() {
		return 0, errors.New("zenfolio.gallery_id is not set and stdin is not a terminal")
	}
	if err := lib.Login(ctx, client, cfg.Zenfolio.Login, password, backoff(cfg)); err != nil {
		return 0, err
	}
	return lib.PickGallery(ctx, client, cfg.Zenfolio.Login)
}

// newRootCmd builds the command tree. Commands return their errors so
// deferred cleanup runs before main exits.
func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool
	var cfg config.ZenwatchConfig

	rootCmd := cobra.Command{
		Use:   zenwatch,
		Short: "Upload images dropped into a folder to a Zenfolio gallery",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lib.SetVerbose(verbose)
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")

	watchCmd := cobra.Command{
		Use:   "watch",
		Short: "Watch the gallery folder and upload new images",
		Long: `Log in, load the gallery and upload every image that appears in
<image_root>/<gallery title> and is not yet in the gallery. Runs until
interrupted. If zenfolio.gallery_id is 0 the gallery is picked interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			progress, err := cmd.Flags().GetBool("progress")
			if err != nil {
				return fmt.Errorf("invalid progress flag: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pw, err := password(cfg)
			if err != nil {
				return err
			}
			client := newZenfolioClient(cfg)

			id, err := galleryID(ctx, cfg, client, pw)
			if err != nil {
				return err
			}

			store, recorder, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			uploader := lib.NewStreamingUploader(client.UploadClient(), cfg.Watch.ChunkSize, client.UserAgent())
			o := lib.NewOrchestrator(client, uploader, recorder, lib.WatchOptions{
				Login:            cfg.Zenfolio.Login,
				Password:         pw,
				GalleryID:        id,
				CollectionID:     cfg.Zenfolio.CollectionID,
				ImageRoot:        cfg.Watch.ImageRoot,
				PollInterval:     cfg.Watch.GetPollInterval(),
				Extensions:       cfg.Watch.Extensions,
				ContentType:      cfg.Watch.ContentType,
				UploadsPerSecond: cfg.Watch.UploadsPerSecond,
				Backoff:          backoff(cfg),
				WakeOnChange:     cfg.Watch.WakeOnChange,
				ShowProgress:     progress,
			})
			err = o.Run(ctx)
			client.Logout()
			return err
		},
	}
	watchCmd.Flags().BoolP("progress", "p", false, "Show a progress bar for each upload")
	rootCmd.AddCommand(&watchCmd)

	uploadCmd := cobra.Command{
		Use:   "upload <file>",
		Short: "Upload one image to the gallery",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("invalid force flag: %w", err)
			}
			progress, err := cmd.Flags().GetBool("progress")
			if err != nil {
				return fmt.Errorf("invalid progress flag: %w", err)
			}

			file, contentType, err := lib.CheckUploadArgs(args, cfg.Watch.ContentType)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pw, err := password(cfg)
			if err != nil {
				return err
			}
			client := newZenfolioClient(cfg)
			id, err := galleryID(ctx, cfg, client, pw)
			if err != nil {
				return err
			}
			store, recorder, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			uploader := lib.NewStreamingUploader(client.UploadClient(), cfg.Watch.ChunkSize, client.UserAgent())
			res, err := lib.UploadFile(ctx, client, uploader, recorder, file, lib.UploadFileOptions{
				Login:        cfg.Zenfolio.Login,
				Password:     pw,
				GalleryID:    id,
				CollectionID: cfg.Zenfolio.CollectionID,
				Backoff:      backoff(cfg),
				ContentType:  contentType,
				Force:        force,
				ShowProgress: progress,
			})
			if err != nil {
				return err
			}
			fmt.Println(res.PhotoID)
			return nil
		},
	}
	uploadCmd.Flags().BoolP("force", "f", false, "Upload even if the gallery has a photo with the same file name")
	uploadCmd.Flags().BoolP("progress", "p", false, "Show a progress bar")
	rootCmd.AddCommand(&uploadCmd)

	galleriesCmd := cobra.Command{
		Use:   "galleries",
		Short: "List the account's galleries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pw, err := password(cfg)
			if err != nil {
				return err
			}
			client := newZenfolioClient(cfg)
			if err := lib.Login(ctx, client, cfg.Zenfolio.Login, pw, backoff(cfg)); err != nil {
				return err
			}
			galleries, err := lib.Galleries(ctx, client, cfg.Zenfolio.Login)
			if err != nil {
				return err
			}
			return lib.WriteGalleries(os.Stdout, galleries)
		},
	}
	rootCmd.AddCommand(&galleriesCmd)

	historyCmd := cobra.Command{
		Use:   "history",
		Short: "Show recent upload attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := cmd.Flags().GetInt("number")
			if err != nil {
				return fmt.Errorf("invalid number flag: %w", err)
			}
			if !cfg.History.Enabled() {
				return errors.New("history is disabled")
			}
			ctx := context.Background()
			store, err := history.Open(ctx, cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(ctx, n)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tFILE\tSIZE\tPHOTO\tRESULT")
			for _, e := range entries {
				result := "ok"
				if !e.Succeeded() {
					result = e.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.FileName, e.Size, e.PhotoID, result)
			}
			return w.Flush()
		},
	}
	historyCmd.Flags().IntP("number", "n", 20, "Number of attempts to show")
	rootCmd.AddCommand(&historyCmd)

	return &rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
