package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The payload types below are encoded with the protobuf wire format described
// by proto/events/v1/events.proto, so consumers written against that schema
// can decode them. Zero values are omitted, as proto3 does.

// BidPlaced is published when a bid is accepted.
type BidPlaced struct {
	BidID             uuid.UUID
	ListingID         uuid.UUID
	BidderID          uuid.UUID
	Amount            int64
	BidCount          int64
	PreviousWinnerID  uuid.UUID // uuid.Nil for the first bid
	PlacedAt          time.Time
	BidderDisplayName string
}

// BidCancelled is published when a non-winning bid is withdrawn.
type BidCancelled struct {
	BidID       uuid.UUID
	ListingID   uuid.UUID
	BidderID    uuid.UUID
	CancelledAt time.Time
}

// AuctionEnded is published once per listing after its end time has passed.
type AuctionEnded struct {
	ListingID  uuid.UUID
	SellerID   uuid.UUID
	WinnerID   uuid.UUID // uuid.Nil when nobody bid
	FinalPrice int64
	BidCount   int64
	EndedAt    time.Time
}

func (e *BidPlaced) Marshal() ([]byte, error) {
	var enc encoder
	enc.uuid(1, e.BidID)
	enc.uuid(2, e.ListingID)
	enc.uuid(3, e.BidderID)
	enc.int64(4, e.Amount)
	enc.int64(5, e.BidCount)
	enc.uuid(6, e.PreviousWinnerID)
	if err := enc.timestamp(7, e.PlacedAt); err != nil {
		return nil, err
	}
	enc.string(8, e.BidderDisplayName)
	return enc.b, nil
}

func (e *BidPlaced) Unmarshal(b []byte) error {
	return decode(b, func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1:
			e.BidID, err = d.uuid()
		case 2:
			e.ListingID, err = d.uuid()
		case 3:
			e.BidderID, err = d.uuid()
		case 4:
			e.Amount, err = d.int64()
		case 5:
			e.BidCount, err = d.int64()
		case 6:
			e.PreviousWinnerID, err = d.uuid()
		case 7:
			e.PlacedAt, err = d.timestamp()
		case 8:
			e.BidderDisplayName, err = d.string()
		default:
			err = d.skip()
		}
		return err
	})
}

func (e *BidCancelled) Marshal() ([]byte, error) {
	var enc encoder
	enc.uuid(1, e.BidID)
	enc.uuid(2, e.ListingID)
	enc.uuid(3, e.BidderID)
	if err := enc.timestamp(4, e.CancelledAt); err != nil {
		return nil, err
	}
	return enc.b, nil
}

func (e *BidCancelled) Unmarshal(b []byte) error {
	return decode(b, func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1:
			e.BidID, err = d.uuid()
		case 2:
			e.ListingID, err = d.uuid()
		case 3:
			e.BidderID, err = d.uuid()
		case 4:
			e.CancelledAt, err = d.timestamp()
		default:
			err = d.skip()
		}
		return err
	})
}

func (e *AuctionEnded) Marshal() ([]byte, error) {
	var enc encoder
	enc.uuid(1, e.ListingID)
	enc.uuid(2, e.SellerID)
	enc.uuid(3, e.WinnerID)
	enc.int64(4, e.FinalPrice)
	enc.int64(5, e.BidCount)
	if err := enc.timestamp(6, e.EndedAt); err != nil {
		return nil, err
	}
	return enc.b, nil
}

func (e *AuctionEnded) Unmarshal(b []byte) error {
	return decode(b, func(d *decoder, num protowire.Number) (err error) {
		switch num {
		case 1:
			e.ListingID, err = d.uuid()
		case 2:
			e.SellerID, err = d.uuid()
		case 3:
			e.WinnerID, err = d.uuid()
		case 4:
			e.FinalPrice, err = d.int64()
		case 5:
			e.BidCount, err = d.int64()
		case 6:
			e.EndedAt, err = d.timestamp()
		default:
			err = d.skip()
		}
		return err
	})
}

type encoder struct {
	b []byte
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) uuid(num protowire.Number, id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	e.string(num, id.String())
}

func (e *encoder) int64(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(v))
}

func (e *encoder) timestamp(num protowire.Number, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	pb := timestamppb.New(t)
	if err := pb.CheckValid(); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	ts, err := proto.Marshal(pb)
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, ts)
	return nil
}

type decoder struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
}

// decode walks every field in b and hands it to fn, which must consume the
// field value through one of the decoder methods.
func decode(b []byte, fn func(d *decoder, num protowire.Number) error) error {
	d := &decoder{b: b}
	for len(d.b) > 0 {
		num, typ, n := protowire.ConsumeTag(d.b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		d.b = d.b[n:]
		d.num, d.typ = num, typ
		if err := fn(d, num); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
	return nil
}

func (d *decoder) expect(typ protowire.Type) error {
	if d.typ != typ {
		return fmt.Errorf("unexpected wire type %d", d.typ)
	}
	return nil
}

func (d *decoder) skip() error {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.b)
	if n < 0 {
		return protowire.ParseError(n)
	}
	d.b = d.b[n:]
	return nil
}

func (d *decoder) string() (string, error) {
	if err := d.expect(protowire.BytesType); err != nil {
		return "", err
	}
	v, n := protowire.ConsumeString(d.b)
	if n < 0 {
		return "", protowire.ParseError(n)
	}
	d.b = d.b[n:]
	return v, nil
}

func (d *decoder) uuid() (uuid.UUID, error) {
	s, err := d.string()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

func (d *decoder) int64() (int64, error) {
	if err := d.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.b = d.b[n:]
	return int64(v), nil
}

func (d *decoder) timestamp() (time.Time, error) {
	if err := d.expect(protowire.BytesType); err != nil {
		return time.Time{}, err
	}
	raw, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		return time.Time{}, protowire.ParseError(n)
	}
	d.b = d.b[n:]
	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal timestamp: %w", err)
	}
	return ts.AsTime(), nil
}
