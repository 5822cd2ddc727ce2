// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dotplot

// DefaultKmer and DefaultBPPerPixel are this implementation's chosen
// defaults among the several values that appear across call sites in
// the source this was ported from; a caller that needs a different
// value sets KmerBackend.K or Config.BPPerPixel.
const (
	DefaultKmer       = 12
	DefaultBPPerPixel = 17.651
)

// KmerBackend finds exact k-mer matches between a reference and query
// sequence by indexing every forward and reverse-complement k-mer of
// the reference, then sliding a window over the query. It never
// builds an explicit position-pair list larger than the number of
// matches, and reuses no state across calls.
type KmerBackend struct {
	K int
}

// NewKmerBackend returns a backend using DefaultKmer when k is 0.
func NewKmerBackend(k int) *KmerBackend {
	if k == 0 {
		k = DefaultKmer
	}
	return &KmerBackend{K: k}
}

func (b *KmerBackend) Align(refSeqs, qrySeqs [][]byte) ([]Alignment, error) {
	ref := concat(refSeqs)
	qry := concat(qrySeqs)
	if len(ref) < b.K || len(qry) < b.K {
		return nil, nil
	}

	fwd, rev := kmerPositions(b.K, ref)

	var aligns []Alignment
	n := len(qry) - b.K + 1
	for j := 0; j < n; j++ {
		window := string(qry[j : j+b.K])
		for _, i := range rev[window] {
			aligns = append(aligns, Alignment{
				RefStart: i, RefEnd: i + b.K,
				QryStart: j, QryEnd: j + b.K,
				Strand: -1, Primary: true, PointLike: true,
			})
		}
		for _, i := range fwd[window] {
			aligns = append(aligns, Alignment{
				RefStart: i, RefEnd: i + b.K,
				QryStart: j, QryEnd: j + b.K,
				Strand: 1, Primary: true, PointLike: true,
			})
		}
	}
	return aligns, nil
}

// kmerPositions indexes every k-mer of seq by its starting position
// (forward table) and by the mirrored position its reverse complement
// would occupy if seq were laid out in the other orientation (reverse
// table), following the same position mapping a dotplot against seq's
// reverse complement would need.
func kmerPositions(k int, seq []byte) (forward, reverse map[string][]int) {
	forward = make(map[string][]int)
	reverse = make(map[string][]int)
	rc := reverseComplement(seq)
	n := len(seq) - k + 1
	for i := 0; i < n; i++ {
		fk := string(seq[i : i+k])
		forward[fk] = append(forward[fk], i)
		rk := string(rc[i : i+k])
		reverse[rk] = append(reverse[rk], n-i-1)
	}
	return forward, reverse
}

var complement = map[byte]byte{
	'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G',
	'a': 't', 't': 'a', 'g': 'c', 'c': 'g',
	'N': 'N', 'n': 'n',
}

func reverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		c, ok := complement[b]
		if !ok {
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return out
}

func concat(seqs [][]byte) []byte {
	total := 0
	for _, s := range seqs {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}
