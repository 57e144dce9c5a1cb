package utils

import (
	"fmt"

	prt "github.com/abcfe/abcfe-wallet/protocol"
	"golang.org/x/crypto/blake2b"
)

// Hash blake2b-256 over the JSON encoding of i
// JSON 직렬화 사용 - GOB는 네트워크 전송 후 해시가 달라지는 문제 있음
func Hash(i interface{}) prt.Hash {
	data, err := SerializeData(i, SerializationFormatJSON)
	if err != nil {
		s := fmt.Sprintf("%v", i)
		return blake2b.Sum256([]byte(s))
	}
	return blake2b.Sum256(data)
}

func HashBytes(data []byte) prt.Hash {
	return blake2b.Sum256(data)
}
