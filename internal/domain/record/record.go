// Package record encodes services and access keys into their fixed-capacity
// binary account layout: an 8-byte discriminator followed by the fields in
// declaration order. Strings are a little-endian u32 length prefix plus bytes,
// integers are little-endian, identities are raw 32 bytes.
package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// DiscriminatorSize is the length of the record type tag.
const DiscriminatorSize = 8

// ErrDiscriminatorMismatch is returned when decoding data tagged with another record type.
var ErrDiscriminatorMismatch = errors.New("record discriminator mismatch")

// ErrTruncated is returned when data ends before the layout is complete.
var ErrTruncated = errors.New("record truncated")

var (
	serviceDiscriminator   = discriminator("Service")
	accessKeyDiscriminator = discriminator("AccessKey")
)

func discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// ServiceSpace is the fixed allocation for an encoded Service.
const ServiceSpace = DiscriminatorSize +
	(4 + model.MaxServiceNameLen) +
	(4 + model.MaxDescriptionLen) +
	(4 + model.MaxEndpointLen) +
	8 + model.IdentitySize

// AccessKeySpace is the fixed allocation for an encoded AccessKey.
const AccessKeySpace = DiscriminatorSize +
	(4 + model.MaxServiceNameLen) +
	model.IdentitySize + 1 + 16 + 8

// EncodeService returns the layout of svc, zero-padded to ServiceSpace.
func EncodeService(svc model.Service) ([]byte, error) {
	w := newWriter(ServiceSpace, serviceDiscriminator)
	if err := w.string("name", svc.Name, model.MaxServiceNameLen); err != nil {
		return nil, err
	}
	if err := w.string("description", svc.Description, model.MaxDescriptionLen); err != nil {
		return nil, err
	}
	if err := w.string("endpoint", svc.Endpoint, model.MaxEndpointLen); err != nil {
		return nil, err
	}
	w.u64(svc.Price)
	w.raw(svc.Owner[:])
	return w.bytes(), nil
}

// DecodeService parses a Service layout. The ID and CreatedAt fields are not
// part of the layout and are left zero.
func DecodeService(data []byte) (model.Service, error) {
	var svc model.Service
	r, err := newReader(data, serviceDiscriminator)
	if err != nil {
		return svc, err
	}
	if svc.Name, err = r.string("name", model.MaxServiceNameLen); err != nil {
		return svc, err
	}
	if svc.Description, err = r.string("description", model.MaxDescriptionLen); err != nil {
		return svc, err
	}
	if svc.Endpoint, err = r.string("endpoint", model.MaxEndpointLen); err != nil {
		return svc, err
	}
	if svc.Price, err = r.u64(); err != nil {
		return svc, err
	}
	if err := r.raw(svc.Owner[:]); err != nil {
		return svc, err
	}
	return svc, nil
}

// EncodeAccessKey returns the layout of key, zero-padded to AccessKeySpace.
func EncodeAccessKey(key model.AccessKey) ([]byte, error) {
	w := newWriter(AccessKeySpace, accessKeyDiscriminator)
	if err := w.string("service_name", key.ServiceName, model.MaxServiceNameLen); err != nil {
		return nil, err
	}
	w.raw(key.Requester[:])
	if key.Used {
		w.raw([]byte{1})
	} else {
		w.raw([]byte{0})
	}
	w.raw(key.ServiceID[:])
	w.u64(key.Price)
	return w.bytes(), nil
}

// DecodeAccessKey parses an AccessKey layout. ID and timestamps are left zero.
func DecodeAccessKey(data []byte) (model.AccessKey, error) {
	var key model.AccessKey
	r, err := newReader(data, accessKeyDiscriminator)
	if err != nil {
		return key, err
	}
	if key.ServiceName, err = r.string("service_name", model.MaxServiceNameLen); err != nil {
		return key, err
	}
	if err := r.raw(key.Requester[:]); err != nil {
		return key, err
	}
	var used [1]byte
	if err := r.raw(used[:]); err != nil {
		return key, err
	}
	switch used[0] {
	case 0:
	case 1:
		key.Used = true
	default:
		return key, fmt.Errorf("used flag has invalid value %d", used[0])
	}
	var sid uuid.UUID
	if err := r.raw(sid[:]); err != nil {
		return key, err
	}
	key.ServiceID = sid
	if key.Price, err = r.u64(); err != nil {
		return key, err
	}
	return key, nil
}

type writer struct {
	buf   *bytes.Buffer
	space int
}

func newWriter(space int, disc [DiscriminatorSize]byte) *writer {
	buf := bytes.NewBuffer(make([]byte, 0, space))
	buf.Write(disc[:])
	return &writer{buf: buf, space: space}
}

func (w *writer) string(field, s string, max int) error {
	if err := model.CheckCapacity(field, s, max); err != nil {
		return err
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	w.buf.Write(n[:])
	w.buf.WriteString(s)
	return nil
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) raw(b []byte) {
	w.buf.Write(b)
}

// bytes pads the encoded record to its fixed space.
func (w *writer) bytes() []byte {
	out := make([]byte, w.space)
	copy(out, w.buf.Bytes())
	return out
}

type reader struct {
	data []byte
	off  int
}

func newReader(data []byte, disc [DiscriminatorSize]byte) (*reader, error) {
	if len(data) < DiscriminatorSize {
		return nil, ErrTruncated
	}
	if !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return nil, ErrDiscriminatorMismatch
	}
	return &reader{data: data, off: DiscriminatorSize}, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) string(field string, max int) (string, error) {
	lb, err := r.take(4)
	if err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lb)
	if int64(n) > int64(max) {
		return "", &model.CapacityError{Field: field, Len: int(n), Max: max}
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) raw(dst []byte) error {
	b, err := r.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}
