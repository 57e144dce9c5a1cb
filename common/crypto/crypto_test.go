package crypto

import (
	"testing"

	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSeed_Deterministic(t *testing.T) {
	a, err := DeriveSeed("test-domain", "github", "42", "a@b.c")
	require.NoError(t, err)
	b, err := DeriveSeed("test-domain", "github", "42", "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := DeriveSeed("other-domain", "github", "42", "a@b.c")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestSignAndVerify(t *testing.T) {
	privateKey, publicKey, err := GenerateKeyPair()
	require.NoError(t, err)

	txBytes := []byte(`{"transfer":1}`)
	sig, err := SignTransaction(privateKey, txBytes)
	require.NoError(t, err)

	addr, pub, err := VerifyEd25519Signature(sig, txBytes)
	require.NoError(t, err)
	assert.Equal(t, PublicKeyToAddress(publicKey), addr)
	assert.Equal(t, publicKey, pub)
}

func TestSignAndVerify_WrongData(t *testing.T) {
	privateKey, _, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := SignTransaction(privateKey, []byte("original data"))
	require.NoError(t, err)

	_, _, err = VerifyEd25519Signature(sig, []byte("wrong data"))
	assert.Error(t, err)
}

func TestZkLoginAddress_DependsOnSeedOnly(t *testing.T) {
	seed := AddressSeed(7, "sub-1", "client-a")

	assert.Equal(t, ZkLoginAddress("https://accounts.google.com", seed),
		ZkLoginAddress("https://accounts.google.com", AddressSeed(7, "sub-1", "client-a")))
	assert.NotEqual(t, ZkLoginAddress("https://accounts.google.com", seed),
		ZkLoginAddress("https://accounts.google.com", AddressSeed(8, "sub-1", "client-a")))
	assert.NotEqual(t, ZkLoginAddress("https://accounts.google.com", seed),
		ZkLoginAddress("https://github.com", seed))
}

func TestZkLoginSignatureEncoding(t *testing.T) {
	in := prt.ZkLoginSignature{
		Inputs:        prt.ProofArtifact{Issuer: "https://github.com", AddressSeed: "00ff"},
		MaxEpoch:      12,
		UserSignature: "AAEC",
	}
	sig, err := EncodeZkLoginSignature(in)
	require.NoError(t, err)

	flag, _, err := SignatureScheme(sig)
	require.NoError(t, err)
	assert.Equal(t, prt.SchemeZkLogin, flag)

	out, err := DecodeZkLoginSignature(sig)
	require.NoError(t, err)
	assert.Equal(t, in, *out)

	_, _, err = VerifyEd25519Signature(sig, nil)
	assert.Error(t, err)
}
