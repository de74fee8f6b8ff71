package modem

import (
	"fmt"
	"strings"
)

type Scheme int

const (
	BPSK Scheme = iota
	QPSK
	QAM16
	QAM64
	QAM256
)

var schemeNames = [...]string{"bpsk", "qpsk", "16qam", "64qam", "256qam"}

var schemeBits = [...]int{1, 2, 4, 6, 8}

// ConfigurationError reports an unsupported name or an out of range
// parameter given to a constructor or mutator.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func ParseScheme(name string) (Scheme, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range schemeNames {
		if s == n {
			return Scheme(i), nil
		}
	}
	return 0, &ConfigurationError{Field: "modulation", Value: name}
}

func (s Scheme) Valid() bool {
	return s >= BPSK && s <= QAM256
}

func (s Scheme) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

func (s Scheme) BitsPerSymbol() int {
	return schemeBits[s]
}

// Order is the number of constellation points.
func (s Scheme) Order() int {
	return 1 << s.BitsPerSymbol()
}
