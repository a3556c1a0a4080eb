package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"donorhub/internal/profile/models"
)

func TestAddressChanged(t *testing.T) {
	tests := []struct {
		name     string
		original models.Address
		proposed models.Address
		want     bool
	}{
		{
			name:     "nil proposed is never a change",
			original: models.Address{"city": "A"},
			proposed: nil,
			want:     false,
		},
		{
			name:     "empty proposed is never a change",
			original: models.Address{"city": "A"},
			proposed: models.Address{},
			want:     false,
		},
		{
			name:     "empty proposed with no original",
			original: nil,
			proposed: models.Address{},
			want:     false,
		},
		{
			name:     "any proposed address on an addressless profile",
			original: nil,
			proposed: models.Address{"city": "A"},
			want:     true,
		},
		{
			name:     "identical addresses",
			original: models.Address{"city": "A", "zip": "12345"},
			proposed: models.Address{"city": "A", "zip": "12345"},
			want:     false,
		},
		{
			name:     "single field differs",
			original: models.Address{"city": "A", "zip": "12345"},
			proposed: models.Address{"city": "B", "zip": "12345"},
			want:     true,
		},
		{
			name:     "field present only in proposed",
			original: models.Address{"city": "A"},
			proposed: models.Address{"city": "A", "line1": "1 Main St"},
			want:     true,
		},
		{
			name:     "field dropped from proposed does not count",
			original: models.Address{"city": "A", "zip": "12345"},
			proposed: models.Address{"city": "A"},
			want:     false,
		},
		{
			name:     "empty value for a field the original lacks is a change",
			original: models.Address{"city": "A"},
			proposed: models.Address{"city": "A", "line2": ""},
			want:     true,
		},
		{
			name:     "empty value matching an empty original field",
			original: models.Address{"city": "A", "line2": ""},
			proposed: models.Address{"city": "A", "line2": ""},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addressChanged(tt.original, tt.proposed))
		})
	}
}
