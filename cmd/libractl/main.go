// Command libractl zarządza bazą biblioteki: migracje, konta i dane przykładowe.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-api/internal/config"
	"library-api/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Błąd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "libractl",
		Short:         "Narzędzia administracyjne API biblioteki",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newCreateUserCmd(),
		newListUsersCmd(),
		newPasswdCmd(),
		newSeedCmd(),
	)
	return root
}

// withStore otwiera magazyn z konfiguracji środowiska i zamyka go po wykonaniu fn
func withStore(ctx context.Context, fn func(storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Stosuje migracje bazy SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Otwarcie magazynu SQL stosuje brakujące migracje
			return withStore(cmd.Context(), func(storage.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Migracje zastosowane")
				return nil
			})
		},
	}
}
