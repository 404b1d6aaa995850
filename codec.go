package sqlbroker

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

// Codec converts payloads to the text stored in the msg column and back.
// Every instance sharing a table must use the same codec.
type Codec interface {
	// Encode returns the storable text form of data.
	Encode(data []byte) string

	// Decode restores the payload from its stored text form.
	Decode(text string) ([]byte, error)
}

// Base64Codec stores payloads as standard base64. It is the default codec
// and is safe for arbitrary binary payloads.
type Base64Codec struct{}

// Encode implements Codec.
func (Base64Codec) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode implements Codec.
func (Base64Codec) Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDecode, "invalid base64 payload", err)
	}
	return data, nil
}

// TextCodec stores payloads verbatim. Payloads must be valid UTF-8.
type TextCodec struct{}

// Encode implements Codec.
func (TextCodec) Encode(data []byte) string {
	return string(data)
}

// Decode implements Codec.
func (TextCodec) Decode(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, NewError(ErrCodeDecode, fmt.Sprintf("payload is not valid UTF-8 (%d bytes)", len(text)))
	}
	return []byte(text), nil
}
