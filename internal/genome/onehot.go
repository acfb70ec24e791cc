package genome

// Alphabet is the column order of a one-hot row.
const Alphabet = "ACGT"

// OneHot is a one-hot encoded sequence, one row per base. Ambiguous bases
// are all-zero rows.
type OneHot [][4]float32

// baseIndex maps a nucleotide to its one-hot column, or -1.
var baseIndex = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i, b := range []byte(Alphabet) {
		t[b] = int8(i)
		t[b+'a'-'A'] = int8(i)
	}
	return t
}()

// Encode one-hot encodes seq. Case is ignored; anything outside ACGT encodes
// to a zero row.
func Encode(seq string) OneHot {
	out := make(OneHot, len(seq))
	for i := 0; i < len(seq); i++ {
		if c := baseIndex[seq[i]]; c >= 0 {
			out[i][c] = 1
		}
	}
	return out
}

// Decode turns a one-hot sequence back into bases, writing N for rows that
// are not a single hot column.
func Decode(oh OneHot) string {
	b := make([]byte, len(oh))
	for i, row := range oh {
		b[i] = 'N'
		hot := -1
		for c, v := range row {
			if v != 0 {
				if hot >= 0 {
					hot = -1
					break
				}
				hot = c
			}
		}
		if hot >= 0 {
			b[i] = Alphabet[hot]
		}
	}
	return string(b)
}

// ReverseComplement returns a new sequence with row order reversed and each
// row complemented. Columns are ordered ACGT, so complementing reverses the
// row.
func ReverseComplement(oh OneHot) OneHot {
	n := len(oh)
	out := make(OneHot, n)
	for i, row := range oh {
		out[n-1-i] = [4]float32{row[3], row[2], row[1], row[0]}
	}
	return out
}
