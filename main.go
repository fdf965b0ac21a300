package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"protolab/app"
	"protolab/catalog"
	"protolab/config"
	"protolab/db"
	"protolab/routes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "protolab",
	Short: "Prototyping-lab intranet service",
	Long:  "Fabrication requests, inventory with a check-out ledger, and the people who run both.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := app.MustNew()
		defer a.Close()

		routes.Register(a.Router, a)

		a.Log.Info("listening", zap.String("port", a.Config.Port))
		return a.Router.Run(":" + a.Config.Port)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if _, err := db.Connect(cfg); err != nil {
			return err
		}
		fmt.Println("schema up to date")
		return nil
	},
}

// seed prepares a fresh deployment: a starter catalog file and a one-time
// invite for the first administrator.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a starter catalog and invite the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
			if err := catalog.WriteExample(cfg.CatalogPath); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			fmt.Printf("wrote starter catalog to %s\n", cfg.CatalogPath)
		}

		if cfg.BootstrapEmail == "" {
			fmt.Println("BOOTSTRAP_EMAIL not set, skipping admin invite")
			return nil
		}

		conn, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		repo := db.NewRepo(conn)

		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		token := hex.EncodeToString(buf)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := repo.CreateInvite(ctx, cfg.BootstrapEmail, token, time.Now().Add(24*time.Hour), "seed", true); err != nil {
			return fmt.Errorf("bootstrap invite: %w", err)
		}

		fmt.Printf("admin invite for %s\n", cfg.BootstrapEmail)
		fmt.Printf("register at %s/register?inviteToken=%s\n", cfg.WebOrigin, token)
		return nil
	},
}
