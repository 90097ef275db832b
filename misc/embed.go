package misc

import (
	_ "embed"
	"strings"
)

//go:embed disposable.txt
var rawDisposable string

//go:embed roles.txt
var rawRoles string

var (
	disposableSet map[string]struct{}
	roleSet       map[string]struct{}
)

func init() {
	disposableSet = loadList(rawDisposable)
	roleSet = loadList(rawRoles)
}

func loadList(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}

// IsDisposable returns whether the domain is a known disposable
// (throwaway) email domain.
func IsDisposable(domain string) bool {
	_, ok := disposableSet[strings.ToLower(domain)]
	return ok
}

// IsRoleAccount returns whether the username is a role-based account
// (shared inboxes like support@ or billing@) rather than a person.
func IsRoleAccount(username string) bool {
	_, ok := roleSet[strings.ToLower(username)]
	return ok
}
