package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	prt "github.com/abcfe/abcfe-wallet/protocol"
	"golang.org/x/crypto/blake2b"
)

// intent prefix: scope=transaction, version=0, app=0
var txIntent = [3]byte{0, 0, 0}

// IntentDigest is the message actually signed for a transaction
func IntentDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(txIntent)+len(txBytes))
	msg = append(msg, txIntent[:]...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// SignTransaction returns base64(flag || signature || public key)
func SignTransaction(privateKey ed25519.PrivateKey, txBytes []byte) (prt.Signature, error) {
	if privateKey == nil {
		return "", fmt.Errorf("private key is nil")
	}

	digest := IntentDigest(txBytes)
	sig := ed25519.Sign(privateKey, digest[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	buf := make([]byte, 0, 1+len(sig)+len(publicKey))
	buf = append(buf, prt.SchemeEd25519)
	buf = append(buf, sig...)
	buf = append(buf, publicKey...)

	return prt.Signature(base64.StdEncoding.EncodeToString(buf)), nil
}

// SignatureScheme returns the flag byte of a serialized signature
func SignatureScheme(sig prt.Signature) (byte, []byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(sig))
	if err != nil {
		return 0, nil, fmt.Errorf("signature is not base64: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil, fmt.Errorf("signature is empty")
	}
	return raw[0], raw[1:], nil
}

// VerifyEd25519Signature checks sig over txBytes and returns the signer address
func VerifyEd25519Signature(sig prt.Signature, txBytes []byte) (prt.Address, ed25519.PublicKey, error) {
	flag, payload, err := SignatureScheme(sig)
	if err != nil {
		return prt.Address{}, nil, err
	}
	if flag != prt.SchemeEd25519 {
		return prt.Address{}, nil, fmt.Errorf("unexpected signature scheme: 0x%02x", flag)
	}
	if len(payload) != ed25519.SignatureSize+ed25519.PublicKeySize {
		return prt.Address{}, nil, fmt.Errorf("invalid ed25519 signature length: %d", len(payload))
	}

	rawSig := payload[:ed25519.SignatureSize]
	publicKey := ed25519.PublicKey(payload[ed25519.SignatureSize:])

	digest := IntentDigest(txBytes)
	if !ed25519.Verify(publicKey, digest[:], rawSig) {
		return prt.Address{}, nil, fmt.Errorf("invalid signature")
	}

	return PublicKeyToAddress(publicKey), publicKey, nil
}

// EncodeZkLoginSignature returns base64(flag || json(composite))
func EncodeZkLoginSignature(z prt.ZkLoginSignature) (prt.Signature, error) {
	body, err := json.Marshal(z)
	if err != nil {
		return "", fmt.Errorf("failed to encode composite signature: %w", err)
	}
	buf := append([]byte{prt.SchemeZkLogin}, body...)
	return prt.Signature(base64.StdEncoding.EncodeToString(buf)), nil
}

func DecodeZkLoginSignature(sig prt.Signature) (*prt.ZkLoginSignature, error) {
	flag, payload, err := SignatureScheme(sig)
	if err != nil {
		return nil, err
	}
	if flag != prt.SchemeZkLogin {
		return nil, fmt.Errorf("unexpected signature scheme: 0x%02x", flag)
	}

	var z prt.ZkLoginSignature
	if err := json.Unmarshal(payload, &z); err != nil {
		return nil, fmt.Errorf("failed to decode composite signature: %w", err)
	}
	return &z, nil
}
