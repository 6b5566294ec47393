// Package dataurl converts image bytes to and from base64 data URIs, the
// self-contained form the generation service and the history store both use.
package dataurl

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	scheme      = "data:"
	marker      = ";base64,"
	DefaultMime = "image/png"
)

// EncodeBase64 assembles a data URI from a MIME type and an already
// base64-encoded payload.
func EncodeBase64(mime, payload string) string {
	if mime == "" {
		mime = DefaultMime
	}
	return scheme + mime + marker + payload
}

// EncodeBytes encodes raw bytes as a data URI.
func EncodeBytes(mime string, data []byte) string {
	return EncodeBase64(mime, base64.StdEncoding.EncodeToString(data))
}

// EncodeFile reads a file and returns it as a data URI. The MIME type comes
// from the file extension, falling back to content sniffing.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}
	mime := MimeFromPath(path)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return EncodeBytes(mime, data), nil
}

// Decode splits a data URI into its MIME type and base64 payload. It never
// fails: input without a recognizable header degrades to the default MIME
// type with the whole string as payload.
func Decode(dataURI string) (mime, payload string) {
	mime = DefaultMime
	payload = dataURI

	if i := strings.Index(dataURI, ","); i >= 0 && i+1 < len(dataURI) {
		payload = dataURI[i+1:]
	}
	if strings.HasPrefix(dataURI, scheme) {
		if j := strings.Index(dataURI, marker); j > len(scheme) {
			mime = dataURI[len(scheme):j]
		}
	}
	return mime, payload
}

// DecodeBytes returns the MIME type and decoded payload bytes of a data URI.
func DecodeBytes(dataURI string) (string, []byte, error) {
	mime, payload := Decode(dataURI)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return mime, data, nil
}

// MimeFromPath maps a file extension to an image MIME type. Unknown
// extensions return "".
func MimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

// ExtensionForMime maps an image MIME type to a file extension, defaulting
// to png.
func ExtensionForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
