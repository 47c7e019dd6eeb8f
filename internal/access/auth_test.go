package access

import (
	"errors"
	"testing"
)

func TestVerifySecret(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		presented  string
		wantErr    bool
	}{
		{name: "match", configured: "correct-horse-battery", presented: "correct-horse-battery", wantErr: false},
		{name: "mismatch", configured: "correct-horse-battery", presented: "guess", wantErr: true},
		{name: "empty presented", configured: "correct-horse-battery", presented: "", wantErr: true},
		{name: "no secret configured", configured: "", presented: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySecret(tt.configured, tt.presented)
			if tt.wantErr {
				if !errors.Is(err, ErrAuthFailed) {
					t.Errorf("VerifySecret() error = %v, want ErrAuthFailed", err)
				}
				return
			}
			if err != nil {
				t.Errorf("VerifySecret() error = %v, want nil", err)
			}
		})
	}
}
