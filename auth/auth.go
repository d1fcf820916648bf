// Package auth owns SSH host-key loading, public-key fingerprinting, and
// the oplist/whitelist key-file format from spec.md §6.
//
// Unlike the teacher repo (which gated login on membership in a static
// authorized_keys file), chatd's SSH layer accepts any public key: the
// key *is* the user's identity (spec.md §3, "the identity of each user
// is their SSH public key"), and admission control -- whitelist, bans --
// is enforced by the room engine at join time (spec.md §4.7), not by the
// transport. This lets an operator add someone to the whitelist or
// oplist without first round-tripping a key exchange out of band.
package auth

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// SSHAuth holds the server's host key. It no longer gates login against a
// static authorized_keys set -- see the package doc.
type SSHAuth struct {
	HostSSHPrivateKey ssh.Signer
}

// New loads the host private key from path.
func New(hostKeyPath string) (*SSHAuth, error) {
	pkBytes, err := os.ReadFile(hostKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	pk, err := ssh.ParsePrivateKey(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing host key: %w", err)
	}
	return &SSHAuth{HostSSHPrivateKey: pk}, nil
}

// HandlePublicKeyLogin accepts any client key and records its fingerprint
// as a Permissions extension for sshserver to read back after the
// handshake completes.
func (sam *SSHAuth) HandlePublicKeyLogin(c ssh.ConnMetadata, pubKey ssh.PublicKey) (*ssh.Permissions, error) {
	return &ssh.Permissions{
		Extensions: map[string]string{
			"pubkey-fp": Fingerprint(pubKey),
		},
	}, nil
}

// Fingerprint returns the stable identity string for a public key, per
// spec.md §3: "opaque, stable identifier derived from the client's SSH
// public key (e.g. SHA-256 of the wire key)".
func Fingerprint(pubKey ssh.PublicKey) string {
	return ssh.FingerprintSHA256(pubKey)
}
