package allmemscan

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

var (
	// ErrEmptyPattern is returned when the pattern has no bytes.
	ErrEmptyPattern = errors.New("empty pattern")

	// ErrPatternTooLong is returned when the pattern exceeds MaxPatternLen.
	ErrPatternTooLong = errors.New("pattern too long")

	// ErrInvalidRepeat is returned when the repeat count is not positive.
	ErrInvalidRepeat = errors.New("repeat count must be greater than 0")

	// ErrInvalidHexPattern is returned for malformed AOB hex input.
	ErrInvalidHexPattern = errors.New("invalid hex pattern")
)

// Obfuscate XORs every byte of plain with ObfuscationKey and returns the
// result in a new slice. Deobfuscate reverses it.
func Obfuscate(plain []byte) []byte {
	out := make([]byte, len(plain))
	for i, b := range plain {
		out[i] = b ^ ObfuscationKey
	}
	return out
}

// Deobfuscate recovers the plaintext form of an obfuscated pattern.
func Deobfuscate(obfuscated []byte) []byte {
	return Obfuscate(obfuscated)
}

// Pattern is a compiled, obfuscated search pattern with its Boyer-Moore
// tables. It is immutable and safe for concurrent use.
//
// Only the obfuscated bytes are kept. Comparisons decode pattern bytes on
// the fly, so the plaintext never appears in the pattern's backing memory.
type Pattern struct {
	obfuscated []byte
	badChar    [256]int
	goodSuffix []int
}

// Compile builds a Pattern from its obfuscated form.
func Compile(obfuscated []byte) (*Pattern, error) {
	m := len(obfuscated)
	if m == 0 {
		return nil, ErrEmptyPattern
	}
	if m > MaxPatternLen {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d", ErrPatternTooLong, m, MaxPatternLen)
	}

	x := make([]byte, m)
	copy(x, obfuscated)

	p := &Pattern{
		obfuscated: x,
		goodSuffix: make([]int, m),
	}
	p.buildBadChar()
	p.buildGoodSuffix()
	return p, nil
}

// CompilePlain obfuscates plain and compiles it.
func CompilePlain(plain []byte) (*Pattern, error) {
	return Compile(Obfuscate(plain))
}

// RepeatPattern returns s repeated n times, already obfuscated.
func RepeatPattern(s string, n int) ([]byte, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRepeat, n)
	}
	if s == "" {
		return nil, ErrEmptyPattern
	}
	if len(s) > MaxPatternLen/n {
		return nil, fmt.Errorf("%w: %d x %d bytes, maximum is %d", ErrPatternTooLong, n, len(s), MaxPatternLen)
	}

	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		for j := 0; j < len(s); j++ {
			out = append(out, s[j]^ObfuscationKey)
		}
	}
	return out, nil
}

// ParseHexPattern parses an AOB pattern such as "DE AD BE EF" and returns
// the bytes obfuscated. Wildcards are not supported.
func ParseHexPattern(pattern string) ([]byte, error) {
	parts := strings.Fields(pattern)
	if len(parts) == 0 {
		return nil, ErrEmptyPattern
	}
	if len(parts) > MaxPatternLen {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d", ErrPatternTooLong, len(parts), MaxPatternLen)
	}

	out := make([]byte, len(parts))
	for i, part := range parts {
		if part == "??" {
			return nil, fmt.Errorf("%w: wildcard at position %d", ErrInvalidHexPattern, i)
		}
		decoded, err := hex.DecodeString(part)
		if err != nil || len(decoded) != 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidHexPattern, part)
		}
		out[i] = decoded[0] ^ ObfuscationKey
	}
	return out, nil
}

// Len returns the length of the pattern in bytes.
func (p *Pattern) Len() int {
	return len(p.obfuscated)
}

// Obfuscated returns a copy of the obfuscated pattern bytes.
func (p *Pattern) Obfuscated() []byte {
	out := make([]byte, len(p.obfuscated))
	copy(out, p.obfuscated)
	return out
}

// Fingerprint identifies the pattern in logs without revealing it.
func (p *Pattern) Fingerprint() string {
	return fmt.Sprintf("%016x", xxh3.Hash(p.obfuscated))
}

// buildBadChar fills the bad-character table. It is indexed by haystack
// byte values, so entries are keyed on the decoded pattern byte.
func (p *Pattern) buildBadChar() {
	x := p.obfuscated
	m := len(x)
	for i := range p.badChar {
		p.badChar[i] = m
	}
	for i := 0; i < m-1; i++ {
		p.badChar[x[i]^ObfuscationKey] = m - 1 - i
	}
}

// suffixes returns suff where suff[i] is the length of the longest suffix
// of the pattern ending at i that is also a suffix of the whole pattern.
// XOR is a bijection, so working on the obfuscated bytes is equivalent.
func suffixes(x []byte) []int {
	m := len(x)
	suff := make([]int, m)
	suff[m-1] = m
	f, g := 0, m-1
	for i := m - 2; i >= 0; i-- {
		if i > g && suff[i+m-1-f] < i-g {
			suff[i] = suff[i+m-1-f]
			continue
		}
		if i < g {
			g = i
		}
		f = i
		for g >= 0 && x[g] == x[g+m-1-f] {
			g--
		}
		suff[i] = f - g
	}
	return suff
}

func (p *Pattern) buildGoodSuffix() {
	x := p.obfuscated
	m := len(x)
	gs := p.goodSuffix
	suff := suffixes(x)

	for i := range gs {
		gs[i] = m
	}

	// Suffixes that are also prefixes of the pattern.
	j := 0
	for i := m - 1; i >= 0; i-- {
		if suff[i] != i+1 {
			continue
		}
		for ; j < m-1-i; j++ {
			if gs[j] == m {
				gs[j] = m - 1 - i
			}
		}
	}

	for i := 0; i <= m-2; i++ {
		gs[m-1-suff[i]] = m - 1 - i
	}
}
