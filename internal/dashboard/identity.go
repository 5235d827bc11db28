package dashboard

// Identity keys deduplicate user-like records across the conversation
// sessions and the form-captured users collection. The key is the first
// non-empty candidate in priority order; it is a best-effort heuristic with
// no collision guarantee (two people sharing a phone number collapse into
// one logical user).

// identityKey returns the first non-empty candidate.
func identityKey(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return c, true
		}
	}
	return "", false
}

func (u UserSession) identityKey() (string, bool) {
	return identityKey(u.Email, u.Phone, u.SessionID)
}

// Form-captured users have no session, so only contact fields qualify.
func formUserIdentityKey(email, phone string) (string, bool) {
	return identityKey(email, phone)
}
