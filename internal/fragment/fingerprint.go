package fragment

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// Fingerprint is a structural hash of a decoded table. Two fragments that
// decode to the same rows have the same fingerprint regardless of markup
// whitespace or attribute order.
type Fingerprint [32]byte

// IsZero reports whether f was never computed.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:8])
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("fragment: CBOR encoder initialization failed: " + err.Error())
	}
}

// fingerprintRow is the hashed shape of a row. Field order is part of the
// fingerprint, so it only grows at the end.
type fingerprintRow struct {
	ID       int64             `cbor:"1,keyasint"`
	Columns  map[string]string `cbor:"2,keyasint"`
	OnTime   loads.Cell        `cbor:"3,keyasint"`
	Ex       loads.Cell        `cbor:"4,keyasint"`
	Delay    string            `cbor:"5,keyasint"`
	Comments string            `cbor:"6,keyasint"`
	Status   string            `cbor:"7,keyasint"`
	OrigUser string            `cbor:"8,keyasint"`
	Eff      string            `cbor:"9,keyasint"`
}

// Compute returns the fingerprint of rows in order.
func Compute(rows []loads.Row) (Fingerprint, error) {
	h := blake3.New()
	enc := encMode.NewEncoder(h)

	for _, r := range rows {
		fr := fingerprintRow{
			ID:       r.ID,
			Columns:  r.Columns,
			OnTime:   r.OnTime,
			Ex:       r.Exception,
			Delay:    r.Delay,
			Comments: r.Comments,
			Status:   r.StatusText,
			OrigUser: r.OriginalUserDelay,
			Eff:      r.EffectiveDelay,
		}
		if len(fr.Columns) == 0 {
			fr.Columns = nil
		}
		if err := enc.Encode(fr); err != nil {
			return Fingerprint{}, fmt.Errorf("encoding row %d: %w", r.ID, err)
		}
	}

	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f, nil
}
