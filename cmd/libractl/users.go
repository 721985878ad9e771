package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-api/internal/models"
	"library-api/internal/session"
	"library-api/internal/storage"
)

const minPasswordLength = 8

func newCreateUserCmd() *cobra.Command {
	var (
		admin    bool
		password string
	)
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Tworzy konto czytelnika albo administratora",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := passwordHash(cmd, password)
			if err != nil {
				return err
			}
			role := models.RoleReader
			if admin {
				role = models.RoleAdmin
			}

			return withStore(cmd.Context(), func(store storage.Store) error {
				user := &models.User{Username: args[0], PasswordHash: hash, Role: role, IsActive: true}
				if err := store.CreateUser(cmd.Context(), user); err != nil {
					if errors.Is(err, storage.ErrConflict) {
						return fmt.Errorf("użytkownik %q już istnieje", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Utworzono użytkownika %s (id %d, rola %s)\n", user.Username, user.ID, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "nadaj rolę administratora")
	cmd.Flags().StringVar(&password, "password", "", "hasło (domyślnie pytanie w terminalu)")
	return cmd
}

func newPasswdCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Zmienia hasło użytkownika",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := passwordHash(cmd, password)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(store storage.Store) error {
				user, err := store.GetUserByUsername(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("użytkownik %q: %w", args[0], err)
				}
				user.PasswordHash = hash
				if err := store.UpdateUser(cmd.Context(), user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Zmieniono hasło użytkownika %s\n", user.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "nowe hasło (domyślnie pytanie w terminalu)")
	return cmd
}

func newListUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "Wypisuje konta użytkowników",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(store storage.Store) error {
				users, err := store.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	}
}

func printUsers(out io.Writer, users []*models.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.ID, u.Username, u.Role, u.IsActive)
	}
	return w.Flush()
}

// passwordHash bierze hasło z flagi albo pyta o nie dwa razy bez echa
func passwordHash(cmd *cobra.Command, password string) (string, error) {
	if password == "" {
		first, err := readPassword(cmd, "Hasło: ")
		if err != nil {
			return "", err
		}
		second, err := readPassword(cmd, "Powtórz hasło: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", errors.New("hasła nie są identyczne")
		}
		password = first
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("hasło musi mieć minimum %d znaków", minPasswordLength)
	}
	return session.HashPassword(password)
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("błąd odczytu hasła: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
