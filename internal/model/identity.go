package model

// Identity is the owner every ledger record and operation is scoped to.
// A nil *Identity means nobody is signed in.
type Identity struct {
	UID         string
	DisplayName string
}

// SameIdentity reports whether a and b refer to the same owner (both nil counts).
func SameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}
