package keygen

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// Type selects the key algorithm.
type Type string

const (
	TypeRSA     Type = "rsa"
	TypeEd25519 Type = "ed25519"
)

// minRSABits is the smallest RSA modulus accepted.
const minRSABits = 2048

// KeyPair holds a key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is PEM encoded (PKCS#1 for RSA, OpenSSH for ed25519).
	PrivateKey []byte
	// PublicKey is in OpenSSH authorized_keys format.
	PublicKey []byte
}

// Generate creates a new key pair. bits is only used for RSA.
func Generate(t Type, bits int) (*KeyPair, error) {
	switch t {
	case TypeRSA, "":
		return GenerateRSAKeyPair(bits)
	case TypeEd25519:
		return GenerateEd25519KeyPair()
	default:
		return nil, fmt.Errorf("unsupported key type %q", t)
	}
}

// GenerateRSAKeyPair generates an RSA key pair with the given modulus size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	if bits < minRSABits {
		return nil, fmt.Errorf("rsa key size %d is below minimum %d", bits, minRSABits)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	return newKeyPair(privateKeyPEM, &privateKey.PublicKey)
}

// GenerateEd25519KeyPair generates an ed25519 key pair.
func GenerateEd25519KeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 private key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ed25519 private key: %w", err)
	}

	return newKeyPair(pem.EncodeToMemory(block), pub)
}

func newKeyPair(privateKeyPEM []byte, pub crypto.PublicKey) (*KeyPair, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(sshPub),
	}, nil
}

// WriteFiles writes the private key to path and the public key to path.pub.
// Existing files are not overwritten.
func (kp *KeyPair) WriteFiles(path string) error {
	for _, f := range []struct {
		path string
		data []byte
		mode os.FileMode
	}{
		{path, kp.PrivateKey, 0o600},
		{path + ".pub", kp.PublicKey, 0o644},
	} {
		// #nosec G304
		fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.mode)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.path, err)
		}
		if _, err := fh.Write(f.data); err != nil {
			_ = fh.Close()
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		if err := fh.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", f.path, err)
		}
	}
	return nil
}
