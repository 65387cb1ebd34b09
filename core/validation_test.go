package core

import (
	"errors"
	"testing"
)

func TestValidateSortKey(t *testing.T) {
	tests := []struct {
		name    string
		sortKey []byte
		wantErr error
	}{
		{
			name:    "valid sort key",
			sortKey: []byte("0001"),
			wantErr: nil,
		},
		{
			name:    "empty sort key",
			sortKey: nil,
			wantErr: ErrEmptySortKey,
		},
		{
			name:    "separator byte rejected",
			sortKey: []byte{'0', Sep, '1'},
			wantErr: ErrReservedByte,
		},
		{
			name:    "leading separator rejected",
			sortKey: []byte{Sep},
			wantErr: ErrReservedByte,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSortKey(tt.sortKey)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSortKey() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSortKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocID(t *testing.T) {
	if err := ValidateDocID([]byte("doc-1")); err != nil {
		t.Errorf("ValidateDocID() unexpected error: %v", err)
	}
	if err := ValidateDocID(nil); !errors.Is(err, ErrEmptyDocID) {
		t.Errorf("ValidateDocID(nil) error = %v, want %v", err, ErrEmptyDocID)
	}
	if err := ValidateDocID([]byte{'a', Sep}); !errors.Is(err, ErrReservedByte) {
		t.Errorf("ValidateDocID() error = %v, want %v", err, ErrReservedByte)
	}
}
