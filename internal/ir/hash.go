package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with older tags.
const (
	DomainRecord = "txstore/record/v1"
	DomainMedia  = "txstore/media/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordETag computes the entity tag of a record from its type and field
// values. Two records with the same type and field values share an ETag.
func RecordETag(r *Record) (string, error) {
	obj := IRObject{
		"type":   IRString(r.Type),
		"fields": r.FieldObject(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordETag: failed to marshal: %w", err)
	}
	return `W/"` + hashWithDomain(DomainRecord, canonical)[:16] + `"`, nil
}

// MediaETag computes the entity tag of a media payload.
func MediaETag(contentType string, data []byte) string {
	buf := make([]byte, 0, len(contentType)+1+len(data))
	buf = append(buf, contentType...)
	buf = append(buf, 0x00)
	buf = append(buf, data...)
	return `W/"` + hashWithDomain(DomainMedia, buf)[:16] + `"`
}

// MustRecordETag is like RecordETag but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordETag(r *Record) string {
	tag, err := RecordETag(r)
	if err != nil {
		panic(err)
	}
	return tag
}
