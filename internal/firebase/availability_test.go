package firebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
	"library-api/internal/storage"
)

func TestAvailabilityChanges(t *testing.T) {
	active := func(bookID int64) *models.Loan { return &models.Loan{ID: 7, BookID: bookID} }
	returned := func(bookID int64) *models.Loan { return &models.Loan{ID: 7, BookID: bookID, Returned: true} }

	tests := []struct {
		name        string
		prev, next  *models.Loan
		otherActive map[int64]int
		want        map[int64]bool
		wantErr     error
	}{
		{
			name: "nowe aktywne zajmuje książkę",
			next: active(1),
			want: map[int64]bool{1: false},
		},
		{
			name: "nowe zwrócone zostawia książkę dostępną",
			next: returned(1),
			want: map[int64]bool{1: true},
		},
		{
			name:        "nowe zwrócone przy innym aktywnym",
			next:        returned(1),
			otherActive: map[int64]int{1: 1},
			want:        map[int64]bool{1: false},
		},
		{
			name:        "drugie aktywne na tę samą książkę",
			next:        active(1),
			otherActive: map[int64]int{1: 1},
			wantErr:     storage.ErrBookOnLoan,
		},
		{
			name: "zwrot zwalnia książkę",
			prev: active(1),
			next: returned(1),
			want: map[int64]bool{1: true},
		},
		{
			name: "przeniesienie aktywnego zwalnia poprzednią",
			prev: active(1),
			next: active(2),
			want: map[int64]bool{1: true, 2: false},
		},
		{
			name:        "przeniesienie na wypożyczoną książkę",
			prev:        active(1),
			next:        active(2),
			otherActive: map[int64]int{2: 1},
			wantErr:     storage.ErrBookOnLoan,
		},
		{
			name: "przeniesienie zwróconego nie rusza poprzedniej",
			prev: returned(1),
			next: returned(2),
			want: map[int64]bool{2: true},
		},
		{
			name: "usunięcie aktywnego zwalnia książkę",
			prev: active(1),
			want: map[int64]bool{1: true},
		},
		{
			name:        "usunięcie aktywnego przy innym aktywnym",
			prev:        active(1),
			otherActive: map[int64]int{1: 1},
			want:        map[int64]bool{1: false},
		},
		{
			name: "usunięcie zwróconego bez zmian",
			prev: returned(1),
			want: map[int64]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := availabilityChanges(tt.prev, tt.next, tt.otherActive)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
