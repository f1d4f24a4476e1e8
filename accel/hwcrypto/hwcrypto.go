// Package hwcrypto - Hardware-backed cryptographic backend. One unit of work
// is an AES-GCM encrypt plus round-trip verification; availability is gated on
// the CPU exposing AES instructions so the cipher actually runs in hardware.
package hwcrypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/cpu"

	"github.com/nvr-ai/go-accel/accel"
)

const defaultPayloadBytes = 1 << 20

// Available reports whether the host CPU exposes AES instructions.
func Available() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES || cpu.S390X.HasAES
}

// Backend encrypts workload payloads with a preconfigured AES-GCM sealer.
type Backend struct {
	mu      sync.Mutex
	aead    cipher.AEAD
	nonce   []byte
	engaged bool
	closed  bool
}

// New creates the crypto backend. key must be 16, 24, or 32 bytes; nil picks
// a fixed benchmarking key. Hosts without AES instruction support report the
// backend unavailable.
func New(key []byte) (*Backend, error) {
	if !Available() {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, "no AES instruction support on this CPU")
	}

	if key == nil {
		// Fixed key: the workload is throughput measurement, not secrecy.
		key = make([]byte, 32)
		for i := range key {
			key[i] = byte(i * 7)
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}

	return &Backend{
		aead:  aead,
		nonce: make([]byte, aead.NonceSize()),
	}, nil
}

// Kind returns the accelerator kind tag.
func (b *Backend) Kind() accel.Kind {
	return accel.KindCrypto
}

func (b *Backend) engage() (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, "crypto backend closed")
	}
	if b.engaged {
		return nil, errors.Wrap(accel.ErrExecutionFailed, "cipher engine already engaged")
	}
	b.engaged = true

	return func() {
		b.mu.Lock()
		b.engaged = false
		b.mu.Unlock()
	}, nil
}

// Execute encrypts the workload payload once and verifies the round trip,
// returning the elapsed cipher time.
func (b *Backend) Execute(ctx context.Context, w accel.Workload) (time.Duration, error) {
	release, err := b.engage()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}

	payload := w.Payload
	if len(payload) == 0 {
		size := w.Size
		if size <= 0 {
			size = defaultPayloadBytes
		}
		payload = make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
	}

	start := time.Now()
	sealed := b.aead.Seal(nil, b.nonce, payload, nil)
	opened, err := b.aead.Open(nil, b.nonce, sealed, nil)
	elapsed := time.Since(start)
	if err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, "round-trip verification failed")
	}
	if len(opened) != len(payload) {
		return 0, errors.Wrap(accel.ErrExecutionFailed, "round-trip length mismatch")
	}

	return elapsed, nil
}

// Close releases the backend. Subsequent Execute calls report the backend
// unavailable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
