package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pantry-scan/api/internal/vision/types"
)

const receiptJSON = `{"store":"Trader Joe's","date":"2024-03-02","items":[{"name":"Bananas","quantity":6,"unit":"bananas","price":1.14,"category":"Produce"},{"name":"Eggs","quantity":12,"unit":"eggs","price":3.49,"category":"Dairy"}],"total":4.63}`

const mealJSON = `{"meal_name":"Chicken Stir Fry","ingredients":["chicken breast","broccoli","rice"],"estimated_portions":{"chicken breast":1,"broccoli":0.5,"rice":1.5}}`

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestNormalize_BareJSONIsUnchanged(t *testing.T) {
	n := New(nil)

	out := n.Normalize(context.Background(), types.KindReceipt, receiptJSON, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.JSONEq(t, receiptJSON, marshal(t, out.Data()))
	assert.Empty(t, out.Warnings)

	out = n.Normalize(context.Background(), types.KindMeal, mealJSON, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.JSONEq(t, mealJSON, marshal(t, out.Data()))
}

func TestNormalize_WrappedOutputMatchesBare(t *testing.T) {
	n := New(nil)
	bare := n.Normalize(context.Background(), types.KindReceipt, receiptJSON, Meta{})

	wrapped := []string{
		"```json\n" + receiptJSON + "\n```",
		"```\n" + receiptJSON + "\n```",
		"  \n```JSON " + receiptJSON + " ```\n",
		"Here is the receipt data you asked for:\n" + receiptJSON,
		receiptJSON + "\nLet me know if you need anything else!",
		"Sure! ```json\n" + receiptJSON + "\n``` Hope that helps.",
	}
	for _, in := range wrapped {
		out := n.Normalize(context.Background(), types.KindReceipt, in, Meta{})
		require.False(t, out.Fallback, "input %q: %v", in, out.Reason)
		assert.Equal(t, bare.Receipt, out.Receipt, in)
	}
}

func TestNormalize_ProseFallsBack(t *testing.T) {
	sink := new(mockSink)
	sink.On("Record", mock.Anything, mock.MatchedBy(func(r Record) bool {
		return r.Kind == types.KindMeal && r.RawText == "I can't see any food in this picture." &&
			r.RequestID == "req-1" && r.Provider == "gpt" && r.Reason != ""
	})).Return(nil).Once()

	n := New(sink)
	out := n.Normalize(context.Background(), types.KindMeal, "I can't see any food in this picture.", Meta{RequestID: "req-1", Provider: "gpt"})

	require.True(t, out.Fallback)
	var pe *types.ParseError
	assert.True(t, errors.As(out.Reason, &pe))
	assert.Equal(t, FallbackMeal(), out.Meal)
	assert.JSONEq(t, `{"meal_name":"Unknown meal","ingredients":["unknown"],"estimated_portions":{"unknown":0.5}}`, marshal(t, out.Data()))
	sink.AssertExpectations(t)
}

func TestNormalize_ReceiptFallbackIsDeterministic(t *testing.T) {
	n := New(nil)
	a := n.Normalize(context.Background(), types.KindReceipt, "no idea", Meta{})
	b := n.Normalize(context.Background(), types.KindReceipt, "", Meta{})
	require.True(t, a.Fallback)
	require.True(t, b.Fallback)
	assert.Equal(t, a.Receipt, b.Receipt)
	assert.JSONEq(t,
		`{"store":"Unknown","date":"","items":[{"name":"Unrecognized item","quantity":1,"unit":"each","price":0,"category":"Unknown"}],"total":0}`,
		marshal(t, a.Data()))
}

func TestNormalize_ShapeFailures(t *testing.T) {
	cases := []struct {
		kind types.Kind
		in   string
	}{
		{types.KindReceipt, `{"store":"X","total":3}`},
		{types.KindReceipt, `{"store":"X","items":"milk, eggs"}`},
		{types.KindReceipt, `{"store":"X","items":[]}`},
		{types.KindMeal, `{"meal_name":"Soup"}`},
		{types.KindMeal, `{"meal_name":"Soup","ingredients":{"water":1}}`},
		{types.KindMeal, receiptJSON},
	}
	n := New(nil)
	for _, tc := range cases {
		out := n.Normalize(context.Background(), tc.kind, tc.in, Meta{})
		require.True(t, out.Fallback, tc.in)
		var se *types.ShapeError
		assert.True(t, errors.As(out.Reason, &se), "%s: %v", tc.in, out.Reason)
		assert.Equal(t, tc.kind, out.Kind)
	}
}

func TestNormalize_MistypedScalarsDoNotFallBack(t *testing.T) {
	n := New(nil)

	out := n.Normalize(context.Background(), types.KindReceipt,
		`{"store":"A","date":20240302,"items":[{"name":"Milk","quantity":1,"unit":"gallon","price":4.29,"category":"Dairy"}],"total":4.29}`, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.Equal(t, "20240302", out.Receipt.Date)
	assert.Equal(t, "Milk", out.Receipt.Items[0].Name)

	out = n.Normalize(context.Background(), types.KindReceipt,
		`{"store":"A","date":"2024-03-02","items":[{"name":"Milk","price":"a lot"},{"name":"Eggs","price":3.49}],"total":"N/A"}`, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	require.Len(t, out.Receipt.Items, 2)
	assert.Zero(t, out.Receipt.Items[0].Price.Float64())
	assert.InDelta(t, 3.49, out.Receipt.Items[1].Price.Float64(), 1e-9)
	assert.Zero(t, out.Receipt.Total.Float64())

	out = n.Normalize(context.Background(), types.KindMeal,
		`{"meal_name":"Soup","ingredients":["water","leek"],"estimated_portions":{"water":"a little","leek":0.5}}`, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.Equal(t, []string{"water", "leek"}, out.Meal.Ingredients)
	assert.Zero(t, out.Meal.EstimatedPortions["water"].Float64())
	assert.InDelta(t, 0.5, out.Meal.EstimatedPortions["leek"].Float64(), 1e-9)

	out = n.Normalize(context.Background(), types.KindMeal,
		`{"meal_name":null,"ingredients":[{"name":"water"},"salt"]}`, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.Equal(t, []string{"", "salt"}, out.Meal.Ingredients)
}

func TestNormalize_ParseFailures(t *testing.T) {
	n := New(nil)
	for _, in := range []string{
		`{"items": [ {"name": "Milk", }`,
		`[{"items":[]}]`,
		`null`,
		"```json\n```",
	} {
		out := n.Normalize(context.Background(), types.KindReceipt, in, Meta{})
		require.True(t, out.Fallback, in)
		var pe *types.ParseError
		assert.True(t, errors.As(out.Reason, &pe), "%s: %v", in, out.Reason)
	}
}

func TestNormalize_PortionsOutOfRangeAccepted(t *testing.T) {
	in := `{"meal_name":"Feast","ingredients":["steak","fries"],"estimated_portions":{"steak":3.5,"fries":0.01}}`
	out := New(nil).Normalize(context.Background(), types.KindMeal, in, Meta{})
	require.False(t, out.Fallback)
	assert.InDelta(t, 3.5, out.Meal.EstimatedPortions["steak"].Float64(), 1e-9)
	assert.InDelta(t, 0.01, out.Meal.EstimatedPortions["fries"].Float64(), 1e-9)
	assert.Empty(t, out.Warnings)
}

func TestNormalize_UnmatchedPortionsWarnOnly(t *testing.T) {
	in := `{"meal_name":"Salad","ingredients":["lettuce"],"estimated_portions":{"lettuce":1,"croutons":0.2}}`
	out := New(nil).Normalize(context.Background(), types.KindMeal, in, Meta{})
	require.False(t, out.Fallback)
	assert.Equal(t, []string{WarnPortionsUnmatched}, out.Warnings)
	assert.JSONEq(t, in, marshal(t, out.Data()))
}

func TestNormalize_TotalMismatchWarnOnly(t *testing.T) {
	in := `{"store":"A","date":"","items":[{"name":"Milk","quantity":1,"unit":"gallon","price":4.29,"category":"Dairy"}],"total":9.99}`
	out := New(nil).Normalize(context.Background(), types.KindReceipt, in, Meta{})
	require.False(t, out.Fallback)
	assert.Equal(t, []string{WarnTotalMismatch}, out.Warnings)
	assert.InDelta(t, 9.99, out.Receipt.Total.Float64(), 1e-9)
}

func TestNormalize_StringNumbersAreTolerated(t *testing.T) {
	in := `{"store":"A","date":"2024-01-01","items":[{"name":"Bread","quantity":"1","unit":"loaf","price":"$2.99","category":"Bakery"}],"total":"2.99"}`
	out := New(nil).Normalize(context.Background(), types.KindReceipt, in, Meta{})
	require.False(t, out.Fallback, "%v", out.Reason)
	assert.InDelta(t, 2.99, out.Receipt.Items[0].Price.Float64(), 1e-9)
	assert.Empty(t, out.Warnings)
}

func TestNormalize_SinkErrorDoesNotLeak(t *testing.T) {
	sink := new(mockSink)
	sink.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	out := New(sink).Normalize(context.Background(), types.KindReceipt, "garbage", Meta{})
	assert.True(t, out.Fallback)
	assert.Equal(t, FallbackReceipt(), out.Receipt)
	sink.AssertExpectations(t)
}

func TestMultiSink(t *testing.T) {
	a, b := new(mockSink), new(mockSink)
	a.On("Record", mock.Anything, mock.Anything).Return(nil)
	b.On("Record", mock.Anything, mock.Anything).Return(errors.New("s3 down"))

	err := MultiSink{a, b}.Record(context.Background(), Record{Kind: types.KindMeal})
	assert.EqualError(t, err, "s3 down")
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestReceiptTotalMatches(t *testing.T) {
	r := types.ReceiptResult{Items: []types.LineItem{{Price: 0.1}, {Price: 0.2}}, Total: 0.3}
	sum, ok := ReceiptTotalMatches(r)
	assert.True(t, ok)
	assert.Equal(t, "0.3", sum.String())

	r.Total = 0
	_, ok = ReceiptTotalMatches(r)
	assert.True(t, ok)

	r.Total = 0.35
	_, ok = ReceiptTotalMatches(r)
	assert.False(t, ok)
}
