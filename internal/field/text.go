// internal/field/text.go
package field

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tamzrod/regcache/internal/regmap"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func textEncoding(e regmap.Encoding) encoding.Encoding {
	switch e {
	case regmap.EncodingUnicode:
		return utf16le
	case regmap.EncodingLatin1:
		return charmap.ISO8859_1
	}
	return nil
}

// decodeString stops at the first NUL character.
func decodeString(buf []byte, enc regmap.Encoding) (string, error) {
	if enc == regmap.EncodingUnicode {
		end := len(buf) &^ 1
		for i := 0; i+1 < len(buf); i += 2 {
			if buf[i] == 0 && buf[i+1] == 0 {
				end = i
				break
			}
		}
		out, err := utf16le.NewDecoder().Bytes(buf[:end])
		return string(out), err
	}

	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	switch enc {
	case regmap.EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
		return string(out), err
	case regmap.EncodingASCII:
		for _, b := range buf {
			if b >= utf8.RuneSelf {
				return "", fmt.Errorf("byte 0x%02X is not ASCII", b)
			}
		}
	default:
		if !utf8.Valid(buf) {
			return "", fmt.Errorf("bytes are not valid UTF-8")
		}
	}
	return string(buf), nil
}

// encodeString pads with NUL to n bytes.
func encodeString(text string, n int, enc regmap.Encoding) ([]byte, error) {
	raw := []byte(text)
	switch enc {
	case regmap.EncodingASCII:
		for _, r := range text {
			if r >= utf8.RuneSelf {
				return nil, fmt.Errorf("%q is not ASCII", r)
			}
		}
	case regmap.EncodingUnicode, regmap.EncodingLatin1:
		var err error
		if raw, err = textEncoding(enc).NewEncoder().Bytes(raw); err != nil {
			return nil, fmt.Errorf("%q cannot be encoded as %s", text, enc)
		}
	}
	if len(raw) > n {
		return nil, fmt.Errorf("%q needs %d bytes, the field holds %d", text, len(raw), n)
	}
	buf := make([]byte, n)
	copy(buf, raw)
	return buf, nil
}

func formatIP(buf []byte) string {
	addr, ok := netip.AddrFromSlice(buf)
	if !ok {
		return ""
	}
	return addr.String()
}

func parseIP(text string, version int) ([]byte, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	switch {
	case version == 4 && addr.Is4():
		b := addr.As4()
		return b[:], nil
	case version == 6 && addr.Is6():
		b := addr.As16()
		return b[:], nil
	}
	return nil, fmt.Errorf("%s is not an IPv%d address", addr, version)
}

func formatMAC(buf []byte) string {
	return strings.ToUpper(net.HardwareAddr(buf).String())
}

// parseMAC accepts colon, dash or dot separated forms and bare hex.
func parseMAC(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	var (
		hw  []byte
		err error
	)
	if len(text) == 12 {
		hw, err = hex.DecodeString(text)
	} else {
		hw, err = net.ParseMAC(text)
	}
	if err != nil {
		return nil, fmt.Errorf("%q is not a MAC address", text)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("%q is not a 48-bit MAC address", text)
	}
	return hw, nil
}
