package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"strings"
)

// ImageFingerprint hashes an image's dimensions and pixels into a stable
// cache key component.
func ImageFingerprint(img *image.RGBA) string {
	h := sha256.New()
	var dims [16]byte
	b := img.Bounds()
	binary.LittleEndian.PutUint32(dims[0:], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(dims[4:], uint32(b.Dy()))
	binary.LittleEndian.PutUint32(dims[8:], uint32(img.Stride))
	h.Write(dims[:])
	h.Write(img.Pix)
	return hex.EncodeToString(h.Sum(nil))
}

// OCRKey builds the OCR cache key from the image fingerprint, the language
// set and the primary engine identity.
func OCRKey(fingerprint string, languages []string, engineID string) string {
	return fingerprint + "|" + strings.Join(languages, ",") + "|" + engineID
}

// TranslationKey builds the translation cache key from normalized text, the
// language pair and the provider identity.
func TranslationKey(text, sourceLang, targetLang, providerID string) string {
	h := sha256.Sum256([]byte(NormalizeText(text) + "|" + sourceLang + "|" + targetLang + "|" + providerID))
	return hex.EncodeToString(h[:])
}

// NormalizeText lowercases and collapses whitespace so trivially different
// OCR readings of the same content share a cache entry.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
