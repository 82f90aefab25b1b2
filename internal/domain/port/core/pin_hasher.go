package core

// PinHasher hashes and checks transaction PINs
type PinHasher interface {
	// Hash returns a storable hash of pin
	Hash(pin string) (string, error)
	// Compare returns nil if pin matches hash
	Compare(hash, pin string) error
}
