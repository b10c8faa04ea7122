package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/revlinehq/revline-api/internal/config"
	"github.com/revlinehq/revline-api/internal/database"
	"github.com/revlinehq/revline-api/internal/roles"
)

func main() {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "grant-role <user-id> <role>",
		Short: "Grant or revoke a role assignment for an identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, role := args[0], args[1]
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if err != nil {
				return fmt.Errorf("connect mongo: %w", err)
			}
			defer client.Disconnect(ctx)
			repo := roles.NewMongoRepository(client.Database(cfg.MongoDB.Database).Collection("user_roles"))
			if revoke {
				if err := repo.Revoke(ctx, userID, role); err != nil {
					return err
				}
				fmt.Printf("revoked %s from %s\n", role, userID)
				return nil
			}
			if err := repo.Grant(ctx, userID, role); err != nil {
				return err
			}
			fmt.Printf("granted %s to %s\n", role, userID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke the role instead of granting it")
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
