package bans

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrBadIP = errors.New("bad ip")

// Record is an IP ban. A zero ExpiresAt means the ban never lapses.
type Record struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip"`
	Reason    string    `json:"reason,omitempty"`
	BannedBy  string    `json:"banned_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func NewRecord(ip, reason, by string, now time.Time, d time.Duration) (Record, error) {
	norm, err := NormalizeIP(ip)
	if err != nil {
		return Record{}, err
	}
	if d < 0 {
		return Record{}, fmt.Errorf("negative ban duration %s", d)
	}
	r := Record{
		ID:        uuid.NewString(),
		IP:        norm,
		Reason:    strings.TrimSpace(reason),
		BannedBy:  strings.TrimSpace(by),
		CreatedAt: now.UTC(),
	}
	if d > 0 {
		r.ExpiresAt = r.CreatedAt.Add(d)
	}
	return r, nil
}

func (r Record) Permanent() bool { return r.ExpiresAt.IsZero() }

func (r Record) Active(now time.Time) bool {
	return r.Permanent() || now.Before(r.ExpiresAt)
}

// NormalizeIP canonicalizes an address so "::ffff:10.0.0.1" and "10.0.0.1"
// share one ban.
func NormalizeIP(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrBadIP, ip, err)
	}
	return addr.Unmap().String(), nil
}
