package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoCollection.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// NewDynamoClient builds a client from the default AWS credential chain. A
// non-empty endpoint targets DynamoDB Local.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// DynamoCollection stores each collection in its own table keyed by "id".
// Items are encoded with the json tag names so field names line up with the
// other backends.
type DynamoCollection[T Document] struct {
	client DynamoAPI
	table  string
	newDoc func() T
	now    func() time.Time
}

func NewDynamoCollection[T Document](client DynamoAPI, table string, newDoc func() T) *DynamoCollection[T] {
	return &DynamoCollection[T]{
		client: client,
		table:  table,
		newDoc: newDoc,
		now:    time.Now,
	}
}

func useJSONTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }
func fromJSONTags(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

func (c *DynamoCollection[T]) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func (c *DynamoCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.table),
		Key:            c.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, err
	}
	if len(out.Item) == 0 {
		return zero, ErrNotFound
	}
	return c.decode(out.Item)
}

func (c *DynamoCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	docs, err := c.Find(ctx, filter, Page{Page: 1, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

// Find scans the table, since the access patterns here are not covered by
// key lookups. Sorting and paging happen after the scan.
func (c *DynamoCollection[T]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	items, err := c.scan(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return createdAtOf(items[i]).After(createdAtOf(items[j]))
	})

	start := page.Offset()
	if start >= len(items) {
		return []T{}, nil
	}
	end := len(items)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}

	result := make([]T, 0, end-start)
	for _, item := range items[start:end] {
		doc, err := c.decode(item)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, nil
}

func (c *DynamoCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	items, err := c.scan(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

func (c *DynamoCollection[T]) scan(ctx context.Context, filter Filter) ([]map[string]types.AttributeValue, error) {
	expr, names, values, err := buildDynamoFilter(filter)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{
		TableName:      aws.String(c.table),
		ConsistentRead: aws.Bool(true),
	}
	if expr != "" {
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	term := strings.ToLower(filter.Search)
	var items []map[string]types.AttributeValue
	for {
		out, err := c.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if term != "" && !itemMatchesSearch(item, term, filter.SearchFields) {
				continue
			}
			items = append(items, item)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (c *DynamoCollection[T]) Create(ctx context.Context, doc T) error {
	if doc.GetID() == "" {
		doc.SetID(uuid.New().String())
	}
	doc.SetVersion(1)
	doc.Touch(c.now())

	item, err := attributevalue.MarshalMapWithOptions(doc, useJSONTags)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionFailed(err) {
		return ErrDuplicate
	}
	return err
}

func (c *DynamoCollection[T]) UpdateByID(ctx context.Context, doc T) error {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)
	doc.Touch(c.now())

	item, err := attributevalue.MarshalMapWithOptions(doc, useJSONTags)
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(c.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(id) AND #v = :v"),
		ExpressionAttributeNames: map[string]string{"#v": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.Itoa(expected)},
		},
	})
	if err != nil {
		doc.SetVersion(expected)
		if isConditionFailed(err) {
			return c.missOrConflict(ctx, doc.GetID(), ErrVersionConflict)
		}
		return err
	}
	return nil
}

func (c *DynamoCollection[T]) DeleteByID(ctx context.Context, id string) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.table),
		Key:                 c.key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	return err
}

// Decrement uses a conditional UpdateItem so the check and the write are a
// single operation on the item.
func (c *DynamoCollection[T]) Decrement(ctx context.Context, id, field string, n int) error {
	err := c.adjust(ctx, id, field, -n, "attribute_exists(id) AND #f >= :n")
	if isConditionFailed(err) {
		return c.missOrConflict(ctx, id, ErrInsufficient)
	}
	return err
}

func (c *DynamoCollection[T]) Increment(ctx context.Context, id, field string, n int) error {
	err := c.adjust(ctx, id, field, n, "attribute_exists(id)")
	if isConditionFailed(err) {
		return ErrNotFound
	}
	return err
}

func (c *DynamoCollection[T]) adjust(ctx context.Context, id, field string, delta int, condition string) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	op := "+"
	if delta < 0 {
		op = "-"
	}

	_, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.table),
		Key:                 c.key(id),
		UpdateExpression:    aws.String(fmt.Sprintf("SET #f = #f %s :n, #v = #v + :one, #u = :now", op)),
		ConditionExpression: aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#f": field,
			"#v": "version",
			"#u": "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":   &types.AttributeValueMemberN{Value: strconv.Itoa(amount)},
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: c.now().UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}

func (c *DynamoCollection[T]) missOrConflict(ctx context.Context, id string, conflict error) error {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(c.table),
		Key:                  c.key(id),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return err
	}
	if len(out.Item) == 0 {
		return ErrNotFound
	}
	return conflict
}

func (c *DynamoCollection[T]) decode(item map[string]types.AttributeValue) (T, error) {
	doc := c.newDoc()
	if err := attributevalue.UnmarshalMapWithOptions(item, doc, fromJSONTags); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// buildDynamoFilter renders the equality part of filter as a FilterExpression.
// Search is applied client-side because DynamoDB has no case-insensitive
// contains.
func buildDynamoFilter(filter Filter) (string, map[string]string, map[string]types.AttributeValue, error) {
	if err := filter.validate(); err != nil {
		return "", nil, nil, err
	}
	if len(filter.Equals) == 0 {
		return "", nil, nil, nil
	}

	names := make(map[string]string, len(filter.Equals))
	values := make(map[string]types.AttributeValue, len(filter.Equals))
	clauses := make([]string, 0, len(filter.Equals))
	for i, k := range filter.sortedKeys() {
		av, err := attributevalue.Marshal(filter.Equals[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal filter value for %s: %w", k, err)
		}
		name := fmt.Sprintf("#f%d", i)
		value := fmt.Sprintf(":v%d", i)
		names[name] = k
		values[value] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", name, value))
	}
	return strings.Join(clauses, " AND "), names, values, nil
}

func itemMatchesSearch(item map[string]types.AttributeValue, term string, fields []string) bool {
	for _, f := range fields {
		if s, ok := item[f].(*types.AttributeValueMemberS); ok && strings.Contains(strings.ToLower(s.Value), term) {
			return true
		}
	}
	return false
}

func createdAtOf(item map[string]types.AttributeValue) time.Time {
	s, ok := item["createdAt"].(*types.AttributeValueMemberS)
	if !ok {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.Value)
	return t
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
