package records

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// UpdateCommand is a partial update. Nil fields are left unchanged.
// ID, IsAdminEntry and CreatedAt cannot be updated.
type UpdateCommand struct {
	CustomerName *string   `mapstructure:"customerName"`
	PhoneNumber  *string   `mapstructure:"phoneNumber"`
	CarName      *string   `mapstructure:"carName"`
	CarModel     *string   `mapstructure:"carModel"`
	Price        *float64  `mapstructure:"-"`
	Description  *string   `mapstructure:"description"`
	Images       *[]string `mapstructure:"images"`
}

// Empty reports whether the command changes nothing.
func (c UpdateCommand) Empty() bool {
	return c.CustomerName == nil &&
		c.PhoneNumber == nil &&
		c.CarName == nil &&
		c.CarModel == nil &&
		c.Price == nil &&
		c.Description == nil &&
		c.Images == nil
}

// Apply returns r with the command's fields written over it.
func (c UpdateCommand) Apply(r Record) Record {
	if c.CustomerName != nil {
		r.CustomerName = *c.CustomerName
	}
	if c.PhoneNumber != nil {
		r.PhoneNumber = *c.PhoneNumber
	}
	if c.CarName != nil {
		r.CarName = *c.CarName
	}
	if c.CarModel != nil {
		r.CarModel = *c.CarModel
	}
	if c.Price != nil {
		r.Price = *c.Price
	}
	if c.Description != nil {
		r.Description = *c.Description
	}
	if c.Images != nil {
		r.Images = append([]string{}, (*c.Images)...)
	}
	return r
}

// DecodeUpdate builds an UpdateCommand from an arbitrary JSON object. Scalars are
// weakly converted ("2021" and 2021 both decode into a string field); price is
// coerced like a submission price. Unknown and immutable keys are ignored.
func DecodeUpdate(fields map[string]any) (UpdateCommand, error) {
	var cmd UpdateCommand

	rest := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "price" {
			rest[k] = v
		}
	}

	if err := weakDecode(rest, &cmd); err != nil {
		return UpdateCommand{}, err
	}

	if v, ok := fields["price"]; ok && v != nil {
		price := CoercePrice(v)
		cmd.Price = &price
	}

	return cmd, nil
}

// DecodeInquiry builds an InquirySubmission from a JSON object. Scalars are
// weakly converted, so a numeric phone such as 5550101 decodes as "5550101".
func DecodeInquiry(fields map[string]any) (InquirySubmission, error) {
	var sub InquirySubmission
	if err := weakDecode(fields, &sub); err != nil {
		return InquirySubmission{}, err
	}
	return sub, nil
}

func weakDecode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// CoercePrice converts v to a non-negative finite price. Anything that is not
// such a number becomes 0.
func CoercePrice(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// CoerceFlag reports whether v is boolean true ("true", "1", true, ...).
// Anything else, including unparseable input, is false.
func CoerceFlag(v any) bool {
	b, err := cast.ToBoolE(v)
	return err == nil && b
}
