package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awaistahir/solarhub/internal/config"
	"github.com/awaistahir/solarhub/internal/log"
	"github.com/awaistahir/solarhub/internal/store"
	"github.com/awaistahir/solarhub/internal/uiapi"
	"github.com/awaistahir/solarhub/internal/weather"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	var cfgFile string
	var debug bool
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "solarhubd",
		Short: "SolarHub HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.SetDefaults(v)
			if err := config.Init(v, cfgFile); err != nil {
				return err
			}
			s := config.Load(v)

			log.UseJSON(os.Stdout)
			if debug {
				log.SetDefaultLogLevel(slog.LevelDebug)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, s)
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.solarhub/config.yaml)")
	rootCmd.Flags().IntP("port", "p", 8080, "HTTP port")
	rootCmd.Flags().String("db", "", "Database path")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	v.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	v.BindPFlag("db", rootCmd.Flags().Lookup("db"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, s config.Settings) error {
	logger := log.Ctx(ctx)

	if err := os.MkdirAll(filepath.Dir(s.DBPath), 0755); err != nil {
		return err
	}
	st, err := store.NewStore(s.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	client := weather.NewOpenMeteoClient(s.WeatherBaseURL, s.WeatherTimeout)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           uiapi.NewServer(st, client, s.HouseholdID).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SolarHub server starting", "port", s.Port, "db", s.DBPath, "household", s.HouseholdID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
