package loginkit

import (
	"regexp"
	"strings"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// PasswordStrength returns an entropy-style score in [0,4] for the
// candidate password. userInputs are tokens that earn no complexity credit,
// typically the caller's email local-part from [EmailUserInputs].
func PasswordStrength(password string, userInputs []string) int {
	return zxcvbn.PasswordStrength(password, userInputs).Score
}

// EmailUserInputs derives strength-exclusion tokens from the email
// local-part, split on non-alphanumeric characters, so using one's own
// address as password content is penalized.
func EmailUserInputs(email string) []string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return nil
	}
	var inputs []string
	for _, tok := range nonAlphanumeric.Split(strings.ToLower(strings.TrimSpace(local)), -1) {
		if tok != "" {
			inputs = append(inputs, tok)
		}
	}
	return inputs
}

// EvaluateMasterPasswordPolicies checks the password and its strength score
// against each login-enforced master password policy. It returns whether
// all policies are met and, when not, the organization id of the first
// failing policy. Each organization's requirements are judged
// independently; with zero applicable policies the password trivially
// passes.
func EvaluateMasterPasswordPolicies(score int, password string, policies []Policy) (bool, string) {
	for _, p := range policies {
		if p.Type != PolicyMasterPassword || !p.Enabled || !p.Options.EnforceOnLogin {
			continue
		}
		if !meetsPolicy(score, password, p.Options) {
			return false, p.OrganizationID
		}
	}
	return true, ""
}

// meetsPolicy checks every requirement of a single policy. All requirements
// are evaluated even after the first miss so the check cost does not leak
// which constraint failed.
func meetsPolicy(score int, password string, opts MasterPasswordPolicyOptions) bool {
	ok := true
	if opts.MinComplexity > 0 && score < opts.MinComplexity {
		ok = false
	}
	if opts.MinLength > 0 && len(password) < opts.MinLength {
		ok = false
	}
	if opts.RequireUpper && !strings.ContainsFunc(password, isUpper) {
		ok = false
	}
	if opts.RequireLower && !strings.ContainsFunc(password, isLower) {
		ok = false
	}
	if opts.RequireNumbers && !strings.ContainsAny(password, "0123456789") {
		ok = false
	}
	if opts.RequireSpecial && !strings.ContainsAny(password, "!@#$%^&*") {
		ok = false
	}
	return ok
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
