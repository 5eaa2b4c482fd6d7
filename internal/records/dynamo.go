package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoKindIndex is the global secondary index keyed by kind (hash) and
// createdAt (range) that serves partitioned listing.
const DynamoKindIndex = "kind-createdAt-index"

const (
	kindInventory = "inventory"
	kindInquiry   = "inquiry"
)

// dynamoItem is the stored item shape. CreatedAt is unix nanoseconds so the
// index range key sorts chronologically.
type dynamoItem struct {
	ID           string   `dynamodbav:"id"`
	Kind         string   `dynamodbav:"kind"`
	CustomerName string   `dynamodbav:"customerName"`
	PhoneNumber  string   `dynamodbav:"phoneNumber"`
	CarName      string   `dynamodbav:"carName"`
	CarModel     string   `dynamodbav:"carModel"`
	Price        float64  `dynamodbav:"price"`
	Description  string   `dynamodbav:"description"`
	Images       []string `dynamodbav:"images"`
	IsAdminEntry bool     `dynamodbav:"isAdminEntry"`
	CreatedAt    int64    `dynamodbav:"createdAt"`
}

func kindOf(isAdminEntry bool) string {
	if isAdminEntry {
		return kindInventory
	}
	return kindInquiry
}

func newDynamoItem(r Record) dynamoItem {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return dynamoItem{
		ID:           r.ID,
		Kind:         kindOf(r.IsAdminEntry),
		CustomerName: r.CustomerName,
		PhoneNumber:  r.PhoneNumber,
		CarName:      r.CarName,
		CarModel:     r.CarModel,
		Price:        r.Price,
		Description:  r.Description,
		Images:       images,
		IsAdminEntry: r.IsAdminEntry,
		CreatedAt:    r.CreatedAt.UnixNano(),
	}
}

func (d dynamoItem) record() Record {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return Record{
		ID:           d.ID,
		CustomerName: d.CustomerName,
		PhoneNumber:  d.PhoneNumber,
		CarName:      d.CarName,
		CarModel:     d.CarModel,
		Price:        d.Price,
		Description:  d.Description,
		Images:       images,
		IsAdminEntry: d.IsAdminEntry,
		CreatedAt:    time.Unix(0, d.CreatedAt).UTC(),
	}
}

type dynamoStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoStore returns a Store over a DynamoDB table with string hash key
// "id" and the DynamoKindIndex secondary index.
func NewDynamoStore(client *dynamodb.Client, table string) Store {
	return &dynamoStore{client: client, table: table}
}

func (s *dynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *dynamoStore) Create(ctx context.Context, r Record) (Record, error) {
	r.ID = uuid.NewString()
	it := newDynamoItem(r)

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return Record{}, fmt.Errorf("marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return Record{}, err
	}
	return it.record(), nil
}

func (s *dynamoStore) List(ctx context.Context, f Filter) ([]Record, error) {
	if f.IsAdminEntry == nil {
		return s.scanAll(ctx)
	}

	p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(DynamoKindIndex),
		KeyConditionExpression: aws.String("#kind = :kind"),
		ExpressionAttributeNames: map[string]string{
			"#kind": "kind",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind": &types.AttributeValueMemberS{Value: kindOf(*f.IsAdminEntry)},
		},
		ScanIndexForward: aws.Bool(false),
	})

	recs := []Record{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		batch, err := unmarshalItems(page.Items)
		if err != nil {
			return nil, err
		}
		recs = append(recs, batch...)
	}
	return recs, nil
}

func (s *dynamoStore) scanAll(ctx context.Context) ([]Record, error) {
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	recs := []Record{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		batch, err := unmarshalItems(page.Items)
		if err != nil {
			return nil, err
		}
		recs = append(recs, batch...)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *dynamoStore) Find(ctx context.Context, id string) (Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(id),
	})
	if err != nil {
		return Record{}, err
	}
	if out.Item == nil {
		return Record{}, ErrNotFound
	}
	return unmarshalItem(out.Item)
}

func (s *dynamoStore) Update(ctx context.Context, id string, cmd UpdateCommand) (Record, error) {
	names, values, sets, err := updateExpression(cmd)
	if err != nil {
		return Record{}, err
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(id),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return Record{}, mapDynamoError(err)
	}
	return unmarshalItem(out.Attributes)
}

func (s *dynamoStore) Delete(ctx context.Context, id string) (Record, error) {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ReturnValues:        types.ReturnValueAllOld,
	})
	if err != nil {
		return Record{}, mapDynamoError(err)
	}
	return unmarshalItem(out.Attributes)
}

// updateExpression builds the SET clauses for the fields present in cmd.
func updateExpression(cmd UpdateCommand) (map[string]string, map[string]types.AttributeValue, []string, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var sets []string

	add := func(attr string, v any) error {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", attr, err)
		}
		n := strconv.Itoa(len(sets))
		names["#f"+n] = attr
		values[":v"+n] = av
		sets = append(sets, "#f"+n+" = :v"+n)
		return nil
	}

	fields := []struct {
		attr string
		set  bool
		val  func() any
	}{
		{"customerName", cmd.CustomerName != nil, func() any { return *cmd.CustomerName }},
		{"phoneNumber", cmd.PhoneNumber != nil, func() any { return *cmd.PhoneNumber }},
		{"carName", cmd.CarName != nil, func() any { return *cmd.CarName }},
		{"carModel", cmd.CarModel != nil, func() any { return *cmd.CarModel }},
		{"price", cmd.Price != nil, func() any { return *cmd.Price }},
		{"description", cmd.Description != nil, func() any { return *cmd.Description }},
		{"images", cmd.Images != nil, func() any { return append([]string{}, (*cmd.Images)...) }},
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		if err := add(f.attr, f.val()); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(sets) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty update", ErrInvalidRecord)
	}
	return names, values, sets, nil
}

func unmarshalItem(av map[string]types.AttributeValue) (Record, error) {
	var it dynamoItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return Record{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return it.record(), nil
}

func unmarshalItems(items []map[string]types.AttributeValue) ([]Record, error) {
	recs := make([]Record, 0, len(items))
	for _, av := range items {
		r, err := unmarshalItem(av)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func mapDynamoError(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	return err
}
