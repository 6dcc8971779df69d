package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

func TestNewLDAPError(t *testing.T) {
	tests := []struct {
		name         string
		operation    string
		err          error
		wantNil      bool
		wantCategory ErrorCategory
		wantCode     uint16
	}{
		{
			name:      "nil error",
			operation: "search",
			err:       nil,
			wantNil:   true,
		},
		{
			name:         "no such object",
			operation:    "read_current_value",
			err:          ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("entry missing")),
			wantCategory: ErrorCategoryNotFound,
			wantCode:     ldap.LDAPResultNoSuchObject,
		},
		{
			name:         "invalid credentials",
			operation:    "search",
			err:          ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")),
			wantCategory: ErrorCategoryAuthentication,
			wantCode:     ldap.LDAPResultInvalidCredentials,
		},
		{
			name:         "generic error",
			operation:    "search",
			err:          errors.New("connection refused"),
			wantCategory: ErrorCategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewLDAPError(tt.operation, tt.err)

			if tt.wantNil {
				if result != nil {
					t.Errorf("NewLDAPError() = %v, want nil", result)
				}
				return
			}

			if result == nil {
				t.Fatal("NewLDAPError() = nil, want non-nil")
			}
			if result.Operation != tt.operation {
				t.Errorf("Operation = %s, want %s", result.Operation, tt.operation)
			}
			if result.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", result.Category, tt.wantCategory)
			}
			if result.LDAPCode != tt.wantCode {
				t.Errorf("LDAPCode = %d, want %d", result.LDAPCode, tt.wantCode)
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("errors.Is(result, cause) = false")
			}
		})
	}
}

func TestLDAPError_Error(t *testing.T) {
	tests := []struct {
		name    string
		ldapErr *LDAPError
		want    string
	}{
		{
			name:    "operation only",
			ldapErr: &LDAPError{Operation: "search"},
			want:    "LDAP search failed",
		},
		{
			name: "full context",
			ldapErr: &LDAPError{
				Operation: "read_current_value",
				LDAPCode:  ldap.LDAPResultBusy,
				Attribute: "userAccountControl",
				DN:        "CN=Doc,DC=example,DC=com",
				Cause:     errors.New("busy"),
			},
			want: "LDAP read_current_value failed (code 51) - attribute: userAccountControl - DN: CN=Doc,DC=example,DC=com - busy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ldapErr.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("search", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}

	existing := &LDAPError{Category: ErrorCategoryServer}
	wrapped := WrapError("search", fmt.Errorf("outer: %w", existing))
	if existing.Operation != "search" {
		t.Errorf("Operation = %q, want search", existing.Operation)
	}
	if GetErrorCategory(wrapped) != ErrorCategoryServer {
		t.Errorf("category lost through wrapping")
	}
}

func TestIsNotFoundError(t *testing.T) {
	if !IsNotFoundError(ldap.NewError(ldap.LDAPResultNoSuchAttribute, errors.New("x"))) {
		t.Error("raw go-ldap no such attribute should be not found")
	}
	if !IsNotFoundError(NewLDAPError("search", ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("x")))) {
		t.Error("wrapped no such object should be not found")
	}
	if IsNotFoundError(errors.New("no such object")) {
		t.Error("plain errors are not categorised by message")
	}
	if IsNotFoundError(nil) {
		t.Error("nil is not a not-found error")
	}
}
