package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"library-api/internal/config"
	"library-api/internal/handlers"
	"library-api/internal/library"
	"library-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Błędna konfiguracja: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatalf("Serwer zakończył pracę z błędem: %v", err)
	}
}

// run obsługuje żądania aż do anulowania ctx; magazyn jest zamykany przed powrotem
func run(ctx context.Context, cfg *config.Config) error {
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("nie można otworzyć magazynu: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Błąd zamykania magazynu: %v", err)
		}
	}()

	sessions := session.NewManager(store, cfg.TokenTTL)
	router := handlers.NewRouter(library.New(store), sessions)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serwer uruchomiony na porcie %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("nie można uruchomić serwera: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("Zatrzymywanie serwera...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("błąd zatrzymywania serwera: %w", err)
	}
	log.Println("Serwer zatrzymany")
	return nil
}
