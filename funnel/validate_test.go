package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"M5V", "M5V", true},
		{"m5v", "M5V", true},
		{"  k1a ", "K1A", true},
		{"", "", false},
		{"   ", "", false},
		{"M5", "", false},
		{"M5V1", "", false},
		{"M5V 1A1", "", false},
		{"5MV", "", false},
		{"MMV", "", false},
		{"M55", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidatePostalCode(tt.in)
			if !tt.ok {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "postalCode", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name, email         string
		wantName, wantEmail string
		field               string
	}{
		{"Jane Doe", "jane@example.com", "Jane Doe", "jane@example.com", ""},
		{" Jane ", " Jane@Example.COM ", "Jane", "jane@example.com", ""},
		{"", "jane@example.com", "", "", "name"},
		{"Jane", "", "", "", "email"},
		{"Jane", "jane", "", "", "email"},
		{"Jane", "jane@example", "", "", "email"},
		{"Jane", "ja ne@example.com", "", "", "email"},
		{"Jane", "jane@@example.com", "", "", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"|"+tt.email, func(t *testing.T) {
			name, email, err := ValidateContact(tt.name, tt.email)
			if tt.field != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantEmail, email)
		})
	}
}
