package loginkit

import (
	"reflect"
	"testing"
)

func loginPolicy(orgID string, opts MasterPasswordPolicyOptions) Policy {
	opts.EnforceOnLogin = true
	return Policy{
		ID:             "pol-" + orgID,
		OrganizationID: orgID,
		Type:           PolicyMasterPassword,
		Enabled:        true,
		Options:        opts,
	}
}

func TestEvaluateMasterPasswordPolicies(t *testing.T) {
	cases := []struct {
		name     string
		score    int
		password string
		policies []Policy
		wantOK   bool
		wantOrg  string
	}{
		{
			name:     "no policies trivially passes",
			score:    0,
			password: "weak",
			wantOK:   true,
		},
		{
			name:     "short password fails min length",
			score:    4,
			password: "password123",
			policies: []Policy{loginPolicy("org-1", MasterPasswordPolicyOptions{MinLength: 12})},
			wantOK:   false,
			wantOrg:  "org-1",
		},
		{
			name:     "low score fails min complexity",
			score:    1,
			password: "a very long passphrase indeed",
			policies: []Policy{loginPolicy("org-1", MasterPasswordPolicyOptions{MinComplexity: 3})},
			wantOK:   false,
			wantOrg:  "org-1",
		},
		{
			name:     "character class requirements",
			score:    4,
			password: "alllowercase1!",
			policies: []Policy{loginPolicy("org-1", MasterPasswordPolicyOptions{RequireUpper: true})},
			wantOK:   false,
			wantOrg:  "org-1",
		},
		{
			name:     "all requirements met",
			score:    4,
			password: "Str0ng&Long!Passphrase",
			policies: []Policy{loginPolicy("org-1", MasterPasswordPolicyOptions{
				MinComplexity:  3,
				MinLength:      12,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumbers: true,
				RequireSpecial: true,
			})},
			wantOK: true,
		},
		{
			name:     "disabled policy ignored",
			score:    0,
			password: "weak",
			policies: []Policy{{
				OrganizationID: "org-1",
				Type:           PolicyMasterPassword,
				Enabled:        false,
				Options:        MasterPasswordPolicyOptions{MinLength: 12, EnforceOnLogin: true},
			}},
			wantOK: true,
		},
		{
			name:     "non-login policy ignored",
			score:    0,
			password: "weak",
			policies: []Policy{{
				OrganizationID: "org-1",
				Type:           PolicyMasterPassword,
				Enabled:        true,
				Options:        MasterPasswordPolicyOptions{MinLength: 12},
			}},
			wantOK: true,
		},
		{
			name:     "wrong policy type ignored",
			score:    0,
			password: "weak",
			policies: []Policy{{
				OrganizationID: "org-1",
				Type:           PolicyTwoFactorAuthentication,
				Enabled:        true,
				Options:        MasterPasswordPolicyOptions{MinLength: 12, EnforceOnLogin: true},
			}},
			wantOK: true,
		},
		{
			name:     "orgs judged independently, first failure reported",
			score:    4,
			password: "LongEnough123!x",
			policies: []Policy{
				loginPolicy("org-lenient", MasterPasswordPolicyOptions{MinLength: 8}),
				loginPolicy("org-strict", MasterPasswordPolicyOptions{MinLength: 30}),
			},
			wantOK:  false,
			wantOrg: "org-strict",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, orgID := EvaluateMasterPasswordPolicies(tc.score, tc.password, tc.policies)
			if ok != tc.wantOK || orgID != tc.wantOrg {
				t.Fatalf("got (%v, %q), want (%v, %q)", ok, orgID, tc.wantOK, tc.wantOrg)
			}
		})
	}
}

func TestPasswordStrengthPenalizesEmailTokens(t *testing.T) {
	// The local-part of the user's own email earns no complexity credit.
	withInputs := PasswordStrength("jane.doe.2024", EmailUserInputs("jane.doe@example.com"))
	without := PasswordStrength("jane.doe.2024", nil)
	if withInputs > without {
		t.Fatalf("email tokens must not raise the score: %d > %d", withInputs, without)
	}

	if score := PasswordStrength("password123", EmailUserInputs("a@b.com")); score > 1 {
		t.Fatalf("expected a dictionary password to score low, got %d", score)
	}
}

func TestEmailUserInputs(t *testing.T) {
	cases := []struct {
		email string
		want  []string
	}{
		{"jane.doe@example.com", []string{"jane", "doe"}},
		{"Jane_Doe+tag@example.com", []string{"jane", "doe", "tag"}},
		{"a@b.com", []string{"a"}},
		{"not-an-email", nil},
		{"@example.com", nil},
	}
	for _, tc := range cases {
		if got := EmailUserInputs(tc.email); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("EmailUserInputs(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}
