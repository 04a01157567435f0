package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var ErrMismatchedPassword = errors.New("password does not match")

// PasswordHasher turns a plain password into a self-describing hash string.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

type Argon2Hasher struct {
	params *argon2id.Params
}

func NewArgon2Hasher(memory, iterations uint32, parallelism uint8) *Argon2Hasher {
	p := *argon2id.DefaultParams
	if memory > 0 {
		p.Memory = memory
	}
	if iterations > 0 {
		p.Iterations = iterations
	}
	if parallelism > 0 {
		p.Parallelism = parallelism
	}
	return &Argon2Hasher{params: &p}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

func (h *Argon2Hasher) Compare(password, hash string) error {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatchedPassword
	}
	return nil
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedPassword
	}
	return err
}

// MultiHasher hashes with its primary algorithm but verifies any supported
// format, so switching HASH_ALGORITHM does not lock out existing accounts.
type MultiHasher struct {
	primary PasswordHasher
	argon   *Argon2Hasher
	bcrypt  *BcryptHasher
}

func NewHasher(algorithm string, memory, iterations uint32, parallelism uint8, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		argon:  NewArgon2Hasher(memory, iterations, parallelism),
		bcrypt: NewBcryptHasher(bcryptCost),
	}
	switch algorithm {
	case "", "argon2id":
		m.primary = m.argon
	case "bcrypt":
		m.primary = m.bcrypt
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Compare(password, hash string) error {
	if strings.HasPrefix(hash, "$argon2id$") {
		return m.argon.Compare(password, hash)
	}
	if strings.HasPrefix(hash, "$2") {
		return m.bcrypt.Compare(password, hash)
	}
	return errors.New("unrecognised password hash format")
}
