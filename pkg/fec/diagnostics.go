package fec

import "errors"

var (
	ErrFraming         = errors.New("framing error")
	ErrUnresolvedBytes = errors.New("unresolved bytes")
)

// UnresolvedSentinel fills every byte the vote could not settle.
const UnresolvedSentinel = 0x00

type Diagnostics struct {
	Header         Header
	HeaderSource   HeaderSource
	HeaderFallback bool

	UnresolvedBytes int
	MissingBytes    int
	CorruptShards   int
	RepairedShards  int

	Warnings []error
}

func (d *Diagnostics) warn(err error) {
	d.Warnings = append(d.Warnings, err)
}

// Err joins the warnings. It is nil for a clean decode.
func (d Diagnostics) Err() error {
	return errors.Join(d.Warnings...)
}

// HeaderRepaired reports a header rebuilt from both damaged copies.
func (d Diagnostics) HeaderRepaired() bool {
	return d.HeaderSource == SourceMerged
}

// HeaderUnverified reports a header taken from a copy whose checksum failed.
func (d Diagnostics) HeaderUnverified() bool {
	return d.HeaderSource == SourceUnverified
}

func (d Diagnostics) Clean() bool {
	return len(d.Warnings) == 0
}
