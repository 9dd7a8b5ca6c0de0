package services

import (
	"net/netip"
	"strconv"
	"strings"
)

// UploadedFile describes an attachment received with a submission. The
// content has already been staged on disk by the transport layer.
type UploadedFile struct {
	Name       string // original client file name
	StagedPath string // temporary location, moved on success
	Size       int64
	Err        error // transport error reported while receiving the file
}

// IncomingRequest is the immutable view of one widget request.
type IncomingRequest struct {
	Fields       map[string]string
	UploadedFile *UploadedFile
	ClientIP     string
	UserAgent    string
}

// Field returns the trimmed value of a form field.
func (r IncomingRequest) Field(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Raw returns a form field untouched.
func (r IncomingRequest) Raw(name string) string { return r.Fields[name] }

// Has reports whether the field was sent at all.
func (r IncomingRequest) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// UintField parses a numeric id field; anything unparsable is 0.
func (r IncomingRequest) UintField(name string) uint {
	n, err := strconv.ParseUint(r.Field(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// HasAttachment reports whether a file was uploaded with a name.
func (r IncomingRequest) HasAttachment() bool {
	return r.UploadedFile != nil && r.UploadedFile.Name != ""
}

// packIPv4 returns the IPv4 address as a big-endian integer, or 0 for IPv6
// and unparsable input.
func packIPv4(ip string) uint32 {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return 0
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0
	}
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
