package records

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/autolot/pkg/query"
	"github.com/JaimeStill/autolot/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "records", "r").
	Project("id", "ID").
	Project("customer_name", "CustomerName").
	Project("phone_number", "PhoneNumber").
	Project("car_name", "CarName").
	Project("car_model", "CarModel").
	Project("price", "Price").
	Project("description", "Description").
	Project("images", "Images").
	Project("is_admin_entry", "IsAdminEntry").
	Project("created_at", "CreatedAt")

// Newest first; id breaks ties between rows stamped in the same instant.
var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID", Descending: true},
}

// Apply adds the partition condition to a query builder.
func (f Filter) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("IsAdminEntry", f.IsAdminEntry)
}

// assignments lists the columns an UpdateCommand writes.
func (c UpdateCommand) assignments() []query.Assignment {
	var values []query.Assignment
	add := func(field string, set bool, value any) {
		if set {
			values = append(values, query.Assignment{Field: field, Value: value})
		}
	}

	add("CustomerName", c.CustomerName != nil, c.CustomerName)
	add("PhoneNumber", c.PhoneNumber != nil, c.PhoneNumber)
	add("CarName", c.CarName != nil, c.CarName)
	add("CarModel", c.CarModel != nil, c.CarModel)
	add("Price", c.Price != nil, c.Price)
	add("Description", c.Description != nil, c.Description)
	if c.Images != nil {
		add("Images", true, imageList(*c.Images))
	}

	return values
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	var images imageList
	err := s.Scan(
		&r.ID,
		&r.CustomerName,
		&r.PhoneNumber,
		&r.CarName,
		&r.CarModel,
		&r.Price,
		&r.Description,
		&images,
		&r.IsAdminEntry,
		&r.CreatedAt,
	)
	r.Images = []string(images)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

// imageList stores image URLs in a JSONB column.
type imageList []string

func (l imageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *imageList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = imageList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan images: unsupported type %T", src)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return fmt.Errorf("scan images: %w", err)
	}
	if urls == nil {
		urls = []string{}
	}
	*l = urls
	return nil
}
