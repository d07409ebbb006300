package models

import (
	"encoding/json"
	"testing"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{name: "integer", input: `120000`, wantValid: true, want: 120000},
		{name: "decimal", input: `4.5`, wantValid: true, want: 4.5},
		{name: "numeric string", input: `" 59900 "`, wantValid: true, want: 59900},
		{name: "null", input: `null`, wantValid: false},
		{name: "empty string", input: `""`, wantValid: false},
		{name: "text", input: `"n/a"`, wantValid: false},
		{name: "boolean", input: `true`, wantValid: false},
		{name: "object", input: `{"amount":1}`, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			got, ok := n.Float()
			if ok != tt.wantValid {
				t.Fatalf("valid = %v, want %v", ok, tt.wantValid)
			}
			if ok && got != tt.want {
				t.Fatalf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemDecodeToleratesMissingNumbers(t *testing.T) {
	payload := `{"keyword":"phone","count":2,"items":[
		{"title":"A","url":"http://x/a","price":"15000","rating":null},
		{"title":"B","url":"http://x/b","price":"sin precio","discount_price":9000,"reviews":[{"rate":5,"content":"ok"}]}
	]}`

	var ds Dataset
	if err := json.Unmarshal([]byte(payload), &ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if len(ds.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(ds.Items))
	}
	if v, ok := ds.Items[0].Price.Float(); !ok || v != 15000 {
		t.Fatalf("first price = %v/%v, want 15000", v, ok)
	}
	if _, ok := ds.Items[1].Price.Float(); ok {
		t.Fatalf("non-numeric price must decode as absent")
	}
	if !ds.Items[1].HasDiscount() || ds.Items[0].HasDiscount() {
		t.Fatalf("discount detection mismatch")
	}
	if n, ok := ds.Items[1].Opinions(); !ok || n != 1 {
		t.Fatalf("opinions = %d/%v, want review fallback of 1", n, ok)
	}
}

func TestNumberMarshalAbsentAsNull(t *testing.T) {
	out, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: NewNumber(2.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":2.5,"b":null}` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestProductRecordAcceptsBothSpellings(t *testing.T) {
	var camel, snake ProductRecord
	if err := json.Unmarshal([]byte(`{"title":"T","discountPrice":100,"ratingCount":7}`), &camel); err != nil {
		t.Fatalf("camel: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"title":"T","discount_price":100,"rating_count":7}`), &snake); err != nil {
		t.Fatalf("snake: %v", err)
	}
	for _, rec := range []ProductRecord{camel, snake} {
		if rec.Title != "T" || rec.DiscountPrice.OrZero() != 100 || rec.RatingCount.OrZero() != 7 {
			t.Fatalf("unexpected record %+v", rec)
		}
	}
}
