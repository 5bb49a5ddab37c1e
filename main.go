package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ajemaa/portfolio/internal/config"
	"github.com/ajemaa/portfolio/internal/portfolio"
	"github.com/ajemaa/portfolio/internal/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Serve the portfolio site",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgFile, "")
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "portfolio.yml", "config file path")

	var port string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgFile, port)
		},
	}
	serve.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides config)")

	check := &cobra.Command{
		Use:   "check [data-file]",
		Short: "Validate the portfolio data file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				path = cfg.DataFile
			}
			return runCheck(cmd, path)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "portfolio", version)
		},
	}

	root.AddCommand(serve, check, versionCmd)
	return root
}

// runCheck prints every problem in the data file and fails if there are any.
func runCheck(cmd *cobra.Command, path string) error {
	p, err := portfolio.Load(path)
	if err != nil {
		return err
	}
	problems := p.Validate()
	for _, problem := range problems {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, problem)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) in %s", len(problems), path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d experience, %d projects, %d certifications)\n",
		path, len(p.Experience), len(p.Projects), len(p.Certifications))
	return nil
}

func runServe(parent context.Context, cfgFile, port string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	content, err := portfolio.NewStore(cfg.DataFile)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := newApp(cfg, content, db, newSMTPMailer(cfg.SMTP))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := app.router(ctx)
	if err != nil {
		return err
	}

	if cfg.Watch {
		go func() {
			if err := content.Watch(ctx); err != nil {
				log.Printf("[Content] watch stopped: %v", err)
			}
		}()
	}
	go app.cleanupVisitors(ctx)
	log.Println("Privacy: Visitor tracking enabled with hashed IP addresses")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Portfolio %s listening on :%s", version, cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.hub.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Live] shutdown: %v", err)
	}
	return srv.Shutdown(shutdownCtx)
}
