package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Specification is one row of the analysis table as produced by extraction.
type Specification struct {
	Parameter     string  `json:"parameter"`
	Specification *string `json:"specification"`
	Result        *string `json:"result"`
}

// ExtractedRecord is the semi-structured output of the extraction step.
// Every field is optional; absence means unknown.
type ExtractedRecord struct {
	ProductName     string
	BatchNo         string
	LotNo           string
	CasNo           string
	Date            string
	ExpiryDate      string
	Purity          string
	Appearance      string
	Supplier        string
	SupplierAddress string
	Specifications  []Specification

	// AdditionalInfo and Metadata are carried through untouched and never rendered as rows.
	AdditionalInfo map[string]any
	Metadata       map[string]any

	// Extra holds unrecognized keys in the order they were received.
	Extra Fields

	// order is the key order of the decoded JSON document.
	order []string
}

// Field is one key/value pair of an ordered map.
type Field struct {
	Key   string
	Value any
}

// Fields is an insertion-ordered map of arbitrary extracted values.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key or appends it.
func (f *Fields) Set(key string, value any) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: value})
}

const (
	keyProductName     = "productName"
	keyBatchNo         = "batchNo"
	keyLotNo           = "lotNo"
	keyCasNo           = "casNo"
	keyDate            = "date"
	keyExpiryDate      = "expiryDate"
	keyPurity          = "purity"
	keyAppearance      = "appearance"
	keySupplier        = "supplier"
	keySupplierAddress = "supplierAddress"
	keySpecifications  = "specifications"
	keyAdditionalInfo  = "additionalInfo"
	keyMetadata        = "_metadata"
)

// canonicalOrder is used when a record was built in code rather than decoded.
var canonicalOrder = []string{
	keyProductName, keyBatchNo, keyLotNo, keyCasNo, keyDate, keyExpiryDate,
	keyPurity, keyAppearance, keySupplier, keySupplierAddress,
}

func (r *ExtractedRecord) scalarField(key string) (*string, bool) {
	switch key {
	case keyProductName:
		return &r.ProductName, true
	case keyBatchNo:
		return &r.BatchNo, true
	case keyLotNo:
		return &r.LotNo, true
	case keyCasNo:
		return &r.CasNo, true
	case keyDate:
		return &r.Date, true
	case keyExpiryDate:
		return &r.ExpiryDate, true
	case keyPurity:
		return &r.Purity, true
	case keyAppearance:
		return &r.Appearance, true
	case keySupplier:
		return &r.Supplier, true
	case keySupplierAddress:
		return &r.SupplierAddress, true
	}
	return nil, false
}

// Entries walks every top-level field in document order, known fields first when the
// record was not decoded from JSON. Specifications, additionalInfo and _metadata are
// reported with their structured values.
func (r ExtractedRecord) Entries() Fields {
	out := make(Fields, 0, len(canonicalOrder)+len(r.Extra)+3)
	seen := make(map[string]bool)
	emit := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		if ptr, ok := r.scalarField(key); ok {
			if *ptr != "" {
				out = append(out, Field{Key: key, Value: *ptr})
			}
			return
		}
		switch key {
		case keySpecifications:
			if len(r.Specifications) > 0 {
				out = append(out, Field{Key: key, Value: r.Specifications})
			}
		case keyAdditionalInfo:
			if r.AdditionalInfo != nil {
				out = append(out, Field{Key: key, Value: r.AdditionalInfo})
			}
		case keyMetadata:
			if r.Metadata != nil {
				out = append(out, Field{Key: key, Value: r.Metadata})
			}
		default:
			if v, ok := r.Extra.Get(key); ok {
				out = append(out, Field{Key: key, Value: v})
			}
		}
	}
	for _, key := range r.order {
		emit(key)
	}
	for _, key := range canonicalOrder {
		emit(key)
	}
	for _, f := range r.Extra {
		emit(f.Key)
	}
	emit(keySpecifications)
	emit(keyAdditionalInfo)
	emit(keyMetadata)
	return out
}

// UnmarshalJSON decodes the record while preserving key order and unknown keys.
// Scalar values that are not strings (numbers, booleans) are kept in their text form.
func (r *ExtractedRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extracted record: expected object")
	}
	*r = ExtractedRecord{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("extracted record: expected key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("extracted record %q: %w", key, err)
		}
		r.order = append(r.order, key)
		if err := r.setRaw(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func (r *ExtractedRecord) setRaw(key string, raw json.RawMessage) error {
	if ptr, ok := r.scalarField(key); ok {
		*ptr = scalarText(raw)
		return nil
	}
	switch key {
	case keySpecifications:
		// A malformed table degrades to the fallback rows instead of rejecting the record.
		specs, _ := decodeSpecifications(raw)
		r.Specifications = specs
	case keyAdditionalInfo:
		r.AdditionalInfo = decodeObject(raw)
	case keyMetadata:
		r.Metadata = decodeObject(raw)
	default:
		var v any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("extracted record %q: %w", key, err)
		}
		r.Extra = append(r.Extra, Field{Key: key, Value: v})
	}
	return nil
}

// MarshalJSON writes the record back in its original key order.
func (r ExtractedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	switch trimmed[0] {
	case '{', '[':
		return ""
	}
	if string(trimmed) == "false" {
		return ""
	}
	return string(trimmed)
}

func decodeSpecifications(raw json.RawMessage) ([]Specification, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	out := make([]Specification, 0, len(items))
	for _, item := range items {
		spec := Specification{Parameter: scalarText(item["parameter"])}
		if spec.Parameter == "" {
			spec.Parameter = scalarText(item["item"])
		}
		if v := scalarText(item["specification"]); v != "" {
			spec.Specification = &v
		}
		if v := scalarText(item["result"]); v != "" {
			spec.Result = &v
		}
		out = append(out, spec)
	}
	return out, nil
}

func decodeObject(raw json.RawMessage) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// ScalarString renders a decoded scalar for display. The second result is false for
// values that would not be shown (null, empty, zero, false, objects and arrays).
func ScalarString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
		return val.String(), true
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	default:
		return "", false
	}
}

// Str is a convenience for building optional specification values.
func Str(s string) *string {
	return &s
}
