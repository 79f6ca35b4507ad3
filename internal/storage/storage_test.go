package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "gorm translated duplicate",
			err:  gorm.ErrDuplicatedKey,
			want: true,
		},
		{
			name: "wrapped gorm duplicate",
			err:  fmt.Errorf("create patient: %w", gorm.ErrDuplicatedKey),
			want: true,
		},
		{
			name: "raw postgres unique violation",
			err:  &pgconn.PgError{Code: "23505"},
			want: true,
		},
		{
			name: "other postgres error",
			err:  &pgconn.PgError{Code: "23503"},
			want: false,
		},
		{
			name: "record not found",
			err:  gorm.ErrRecordNotFound,
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicate(tt.err); got != tt.want {
				t.Errorf("IsDuplicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
