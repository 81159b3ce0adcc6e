package password

import "golang.org/x/crypto/bcrypt"

// Operator logins are rare, so the cost can sit above the bcrypt default.
const hashCost = bcrypt.DefaultCost + 2

// Hash produces the bcrypt hash stored in the config file for the operator
// account. Generate one with the hash-password subcommand.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns nil when plain matches hash. Hashes made at any cost level
// verify, so changing hashCost does not invalidate existing config files.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
