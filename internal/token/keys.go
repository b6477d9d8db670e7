package token

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const rsaKeyBits = 2048

// KeyMaterial holds the process-lifetime signing key pair. The private half
// signs issued tokens; the public half verifies inbound ones. A fresh pair is
// generated on every process start, so tokens issued by one instance are not
// verifiable by another instance or after a restart. That is acceptable for
// this mock single-issuer deployment.
type KeyMaterial struct {
	private jwk.Key
	public  jwk.Key
}

// NewKeyMaterial generates a new RSA key pair for RS512 signing.
func NewKeyMaterial() (*KeyMaterial, error) {
	raw, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	private, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap private key: %w", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.RS512); err != nil {
		return nil, fmt.Errorf("failed to set private key algorithm: %w", err)
	}

	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	if err := public.Set(jwk.AlgorithmKey, jwa.RS512); err != nil {
		return nil, fmt.Errorf("failed to set public key algorithm: %w", err)
	}

	return &KeyMaterial{private: private, public: public}, nil
}

// PublicKey returns the verification half of the key pair.
func (k *KeyMaterial) PublicKey() jwk.Key {
	return k.public
}
