package allmemscan

// Search runs Boyer-Moore over hay and calls emit with the offset of every
// match that starts before limit, in increasing order. Scanning stops once
// the alignment reaches limit, so limit bounds work as well as output.
//
// After a full match the alignment advances by the pattern length, which
// yields non-overlapping matches. With overlapping set it advances by the
// pattern's period instead and every occurrence is reported.
//
// hay is only read. A hay shorter than the pattern produces no calls.
func (p *Pattern) Search(hay []byte, limit int, overlapping bool, emit func(offset int)) {
	x := p.obfuscated
	m := len(x)
	n := len(hay)
	if n < m {
		return
	}

	last := n - m
	if limit <= last {
		last = limit - 1
	}

	matchShift := m
	if overlapping {
		matchShift = p.goodSuffix[0]
	}

	j := 0
	for j <= last {
		i := m - 1
		for i >= 0 && x[i]^ObfuscationKey == hay[j+i] {
			i--
		}
		if i < 0 {
			emit(j)
			j += matchShift
			continue
		}
		j += max(p.goodSuffix[i], p.badChar[hay[j+i]]-m+1+i)
	}
}

// FindAll returns the offsets of all non-overlapping matches in hay.
func (p *Pattern) FindAll(hay []byte) []int {
	return p.collect(hay, false)
}

// FindAllOverlapping returns the offsets of every occurrence in hay,
// including occurrences that overlap a previous one.
func (p *Pattern) FindAllOverlapping(hay []byte) []int {
	return p.collect(hay, true)
}

func (p *Pattern) collect(hay []byte, overlapping bool) []int {
	var matches []int
	p.Search(hay, len(hay), overlapping, func(offset int) {
		matches = append(matches, offset)
	})
	return matches
}
