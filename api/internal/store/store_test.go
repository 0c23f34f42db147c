package store

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/vision/types"
)

var at = time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC)

func sampleRecord() normalize.Record {
	return normalize.Record{
		RequestID: "req-42",
		Kind:      types.KindReceipt,
		Provider:  "gpt",
		Model:     "gpt-4o-mini",
		Reason:    "no JSON object in model output",
		RawText:   "I could not read the receipt.",
		At:        at,
	}
}

func TestUnparsedRepo_EnsureSchema(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m.ExpectExec("create table if not exists unparsed_responses").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewUnparsedRepo(db).EnsureSchema(context.Background()))
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestUnparsedRepo_Record(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m.ExpectExec(regexp.QuoteMeta("insert into unparsed_responses")).
		WithArgs(at, "req-42", "receipt", "gpt", "gpt-4o-mini", "no JSON object in model output", "I could not read the receipt.").
		WillReturnResult(sqlmock.NewResult(1, 1))

	var sink normalize.Sink = NewUnparsedRepo(db)
	require.NoError(t, sink.Record(context.Background(), sampleRecord()))
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestUnparsedRepo_RecordError(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m.ExpectExec("insert into unparsed_responses").WillReturnError(errors.New("connection refused"))

	err = NewUnparsedRepo(db).Record(context.Background(), sampleRecord())
	assert.EqualError(t, err, "connection refused")
}

func TestUnparsedRepo_Recent(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"created_at", "request_id", "kind", "provider", "model", "reason", "raw_text"}).
		AddRow(at, "req-42", "meal", "gemini", "gemini-2.5-flash", "shape", "{}")
	m.ExpectQuery("select created_at").WithArgs(20).WillReturnRows(rows)

	recs, err := NewUnparsedRepo(db).Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, types.KindMeal, recs[0].Kind)
	assert.Equal(t, "gemini", recs[0].Provider)
	assert.Equal(t, at, recs[0].At)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestUnparsedRepo_PurgeOlderThan(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUnparsedRepo(db)
	_, err = repo.PurgeOlderThan(context.Background(), 0)
	assert.Error(t, err)

	m.ExpectExec("delete from unparsed_responses").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.PurgeOlderThan(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, m.ExpectationsWereMet())
}

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestS3Sink_Record(t *testing.T) {
	p := new(mockPutter)
	p.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		if aws.ToString(in.Bucket) != "diag" || aws.ToString(in.Key) != "unparsed/2024-03-02/req-42.txt" {
			return false
		}
		b, _ := io.ReadAll(in.Body)
		s := string(b)
		return strings.HasPrefix(s, "kind: receipt\nprovider: gpt\n") &&
			strings.HasSuffix(s, "\n\nI could not read the receipt.") &&
			in.Metadata["kind"] == "receipt"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	sink := &S3Sink{client: p, bucket: "diag", prefix: "unparsed"}
	require.NoError(t, sink.Record(context.Background(), sampleRecord()))
	p.AssertExpectations(t)
}

func TestS3Sink_RecordError(t *testing.T) {
	p := new(mockPutter)
	p.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))

	sink := &S3Sink{client: p, bucket: "diag"}
	err := sink.Record(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "s3://diag/2024-03-02/req-42.txt")
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestS3Sink_RecordAPIError(t *testing.T) {
	p := new(mockPutter)
	p.On("PutObject", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket is gone"})

	sink := &S3Sink{client: p, bucket: "diag", prefix: "x"}
	err := sink.Record(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "s3://diag/x/2024-03-02/req-42.txt (NoSuchBucket)")

	var ae smithy.APIError
	assert.True(t, errors.As(err, &ae))
}

func TestS3Sink_KeyWithoutRequestID(t *testing.T) {
	sink := &S3Sink{prefix: "p"}
	rec := sampleRecord()
	rec.RequestID = ""
	key := sink.Key(rec)
	assert.Regexp(t, `^p/2024-03-02/[0-9a-f-]{36}\.txt$`, key)
}
