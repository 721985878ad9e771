package firebase

import (
	"sort"

	"cloud.google.com/go/firestore"

	"library-api/internal/models"
	"library-api/internal/storage"
)

// availabilityChanges wylicza dostępność książek po zapisie wypożyczenia.
// prev to stan sprzed zapisu (nil przy tworzeniu), next stan po zapisie (nil przy usuwaniu).
// otherActive podaje liczbę pozostałych aktywnych wypożyczeń każdej dotkniętej książki.
func availabilityChanges(prev, next *models.Loan, otherActive map[int64]int) (map[int64]bool, error) {
	changes := make(map[int64]bool, 2)
	if next != nil {
		if next.IsActive() && otherActive[next.BookID] > 0 {
			return nil, storage.ErrBookOnLoan
		}
		changes[next.BookID] = !next.IsActive() && otherActive[next.BookID] == 0
	}
	// zwrócone wypożyczenie nie trzymało poprzedniej książki
	if prev != nil && prev.IsActive() && (next == nil || next.BookID != prev.BookID) {
		changes[prev.BookID] = otherActive[prev.BookID] == 0
	}
	return changes, nil
}

// setAvailability zapisuje wyliczone zmiany w kolejności id książek
func (c *Client) setAvailability(tx *firestore.Transaction, changes map[int64]bool) error {
	ids := make([]int64, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := c.setAvailable(tx, id, changes[id]); err != nil {
			return err
		}
	}
	return nil
}
