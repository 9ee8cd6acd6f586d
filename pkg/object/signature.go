package object

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	// SignatureKey is the commit header that carries an SSH signature.
	SignatureKey = "sshsig"
	// SignaturePrefix tags the signature encoding version.
	SignaturePrefix = "sshsig-v1"
)

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload excludes the signature header itself.
func CommitSigningPayload(c *Commit) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	unsigned := Commit{KVLM: c.Clone()}
	unsigned.Del(SignatureKey)
	return unsigned.Marshal()
}

// FormatSSHSignature encodes a signature as
// "sshsig-v1:{format}:{base64 pubkey}:{base64 blob}".
func FormatSSHSignature(pub ssh.PublicKey, sig *ssh.Signature) string {
	return fmt.Sprintf("%s:%s:%s:%s", SignaturePrefix, sig.Format,
		base64.StdEncoding.EncodeToString(pub.Marshal()),
		base64.StdEncoding.EncodeToString(sig.Blob))
}

// VerifyCommitSignature checks the commit's sshsig header against its
// signing payload. It returns the signer's public key on success.
func VerifyCommitSignature(c *Commit) (ssh.PublicKey, error) {
	raw := c.Signature()
	if raw == "" {
		return nil, fmt.Errorf("commit is not signed")
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 4 || parts[0] != SignaturePrefix {
		return nil, fmt.Errorf("signature: unsupported encoding: %w", ErrInvalidFormat)
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("signature: public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("signature: public key: %w", err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("signature: blob: %w", err)
	}
	payload, err := CommitSigningPayload(c)
	if err != nil {
		return nil, err
	}
	if err := pub.Verify(payload, &ssh.Signature{Format: parts[1], Blob: blob}); err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	return pub, nil
}
