package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Exactly Min Length", "Abcdefghij1!", false},
		{"Too Short", "Small1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "happy_camper123", false},
		{"Too Short", "hc", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "camper@example.com", false},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCampgroundName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCampgroundName("Granite Pass"))
	assert.Error(t, ValidateCampgroundName(""))
	assert.Error(t, ValidateCampgroundName("   "))
	assert.Error(t, ValidateCampgroundName(strings.Repeat("x", 141)))
}

func TestValidatePrice(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePrice(0))
	assert.NoError(t, ValidatePrice(24.50))
	assert.Error(t, ValidatePrice(-1))
}

func TestValidateText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateText("comment", "lovely spot by the river", 500))
	assert.Error(t, ValidateText("comment", "", 500))
	assert.Error(t, ValidateText("comment", "  ", 500))
	assert.Error(t, ValidateText("comment", strings.Repeat("x", 501), 500))
}
