package sqlbroker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64Codec(t *testing.T) {
	codec := Base64Codec{}

	payload := []byte{0x00, 0xff, 'h', 'i', 0x10}
	text := codec.Encode(payload)
	assert.Equal(t, "AP9oaRA=", text)

	decoded, err := codec.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	empty, err := codec.Decode("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBase64Codec_DecodeInvalid(t *testing.T) {
	_, err := Base64Codec{}.Decode("not base64!")
	assert.Error(t, err)
	assert.Equal(t, ErrCodeDecode, errorCode(err))
}

func TestTextCodec(t *testing.T) {
	codec := TextCodec{}

	assert.Equal(t, "héllo", codec.Encode([]byte("héllo")))

	decoded, err := codec.Decode("héllo")
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), decoded)

	_, err = codec.Decode(string([]byte{0xff, 0xfe}))
	assert.Equal(t, ErrCodeDecode, errorCode(err))
}
