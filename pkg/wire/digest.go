package wire

import "github.com/gemini-hlsw/odb-sequencer/pkg/model"

// DiscountKind discriminates a charge discount reason (spec §6).
type DiscountKind string

const (
	DiscountDaylight DiscountKind = "daylight"
	DiscountFault    DiscountKind = "fault"
	DiscountNoData   DiscountKind = "nodata"
	DiscountOverlap  DiscountKind = "overlap"
	DiscountQA       DiscountKind = "qa"
	DiscountWeather  DiscountKind = "weather"
)

// Discount is one applied reduction to a charge.
type Discount struct {
	Kind   DiscountKind    `json:"kind"`
	Amount model.TimeSpan  `json:"amount"`
	Detail string          `json:"detail,omitempty"`
}

// DigestWire is the serialization-ready shape a digest is marshaled to for
// external consumers (spec §6). Persistence/GraphQL marshaling itself is
// out of scope; this struct only fixes the shape.
type DigestWire struct {
	ExecutionTime model.CategorizedTime `json:"executionTime"`
	Discounts     []Discount            `json:"discounts"`
	FinalCharge   model.CategorizedTime `json:"finalCharge"`
}

// ToWire projects an ExecutionDigest plus any applied discounts into the
// wire shape, computing FinalCharge as ExecutionTime minus each discount's
// amount (discounts always reduce the NonCharged bucket, since none of the
// named kinds represent chargeable program/partner time).
func ToWire(d model.ExecutionDigest, discounts []Discount) DigestWire {
	execTime := d.TotalTime()
	final := execTime
	for _, disc := range discounts {
		if final.NonCharged >= disc.Amount {
			final.NonCharged -= disc.Amount
		} else {
			final.NonCharged = 0
		}
	}
	return DigestWire{ExecutionTime: execTime, Discounts: discounts, FinalCharge: final}
}
