package utils

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	prt "github.com/abcfe/abcfe-wallet/protocol"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// HashToString Hash 타입을 16진수 문자열로 변환
func HashToString(hash prt.Hash) string {
	return hex.EncodeToString(hash[:])
}

// StringToHash 16진수 문자열을 Hash 타입으로 변환
func StringToHash(str string) (prt.Hash, error) {
	// 0x 접두사 제거
	str = strings.TrimPrefix(str, "0x")
	bytes, err := hex.DecodeString(str)
	if err != nil {
		return prt.Hash{}, fmt.Errorf("invalid hash string: %v", err)
	}

	// 해시 길이 검증
	if len(bytes) != 32 {
		return prt.Hash{}, fmt.Errorf("invalid hash length: %d (need 32 bytes)", len(bytes))
	}

	var hash prt.Hash
	copy(hash[:], bytes)
	return hash, nil
}

// AddressToString Address 타입을 0x 접두사가 붙은 소문자 16진수 문자열로 변환
func AddressToString(address prt.Address) string {
	return "0x" + hex.EncodeToString(address[:])
}

// StringToAddress 16진수 문자열을 Address 타입으로 변환
// 0x 접두사 + 64자리(32바이트)만 허용, 대소문자는 구분하지 않음
func StringToAddress(str string) (prt.Address, error) {
	str = strings.TrimSpace(str)
	if !addressPattern.MatchString(str) {
		return prt.Address{}, fmt.Errorf("잘못된 주소 형식: %q (0x + 64자리 16진수 필요)", str)
	}

	bytes, err := hex.DecodeString(strings.ToLower(str[2:]))
	if err != nil {
		return prt.Address{}, fmt.Errorf("잘못된 주소 문자열: %v", err)
	}

	var address prt.Address
	copy(address[:], bytes)
	return address, nil
}

// 직렬화 방식 상수
const (
	SerializationFormatGob = iota
	SerializationFormatJSON
)

// SerializeData 객체를 바이트 배열로 직렬화
// format: 직렬화 방식 (SerializationFormatGob 또는 SerializationFormatJSON)
func SerializeData(data interface{}, format int) ([]byte, error) {
	switch format {
	case SerializationFormatGob:
		return gobEncode(data)
	case SerializationFormatJSON:
		return json.Marshal(data)
	default:
		return nil, fmt.Errorf("지원하지 않는 직렬화 형식: %d", format)
	}
}

// DeserializeData 바이트 배열을 객체로 역직렬화
// format: 직렬화 방식 (SerializationFormatGob 또는 SerializationFormatJSON)
func DeserializeData(data []byte, result interface{}, format int) error {
	switch format {
	case SerializationFormatGob:
		return gobDecode(data, result)
	case SerializationFormatJSON:
		return json.Unmarshal(data, result)
	default:
		return fmt.Errorf("지원하지 않는 직렬화 형식: %d", format)
	}
}

// gobEncode Gob 형식으로 데이터 인코딩
func gobEncode(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("Gob 인코딩 오류: %w", err)
	}
	return buf.Bytes(), nil
}

// gobDecode Gob 형식으로 데이터 디코딩
func gobDecode(data []byte, result interface{}) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("Gob 디코딩 오류: %w", err)
	}
	return nil
}

// Uint64ToBytes uint64 값을 바이트 배열로 변환 (DB 키용)
func Uint64ToBytes(value uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return buf
}

// BytesToUint64 바이트 배열에서 uint64 값 추출
func BytesToUint64(data []byte) uint64 {
	return binary.BigEndian.Uint64(data)
}
