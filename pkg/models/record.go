package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnsetIndex marks a record that has not been enumerated yet
const UnsetIndex = -1

// Record is the metadata discovered for one image in the search results.
// Optional fields are nil when the source metadata did not carry them.
type Record struct {
	URL *string `json:"Url"`

	WidthThumbnail  *int `json:"WidthThumbnail"`
	HeightThumbnail *int `json:"HeightThumbnail"`
	WidthOriginal   *int `json:"WidthOriginal"`
	HeightOriginal  *int `json:"HeightOriginal"`

	TitlePage  *string `json:"TitlePage"`
	TitleImage *string `json:"TitleImage"`

	// Extension is the untrusted format hint ("ity"), never used for file names
	Extension *string `json:"Extension"`

	Index int `json:"Index"`
}

// Keys of the raw per-image metadata block
const (
	keyURL             = "tu"
	keyWidthThumbnail  = "tw"
	keyHeightThumbnail = "th"
	keyWidthOriginal   = "ow"
	keyHeightOriginal  = "oh"
	keyTitlePage       = "pt"
	keyTitleImage      = "s"
	keyExtension       = "ity"
)

// FromRawMap builds a record from a raw metadata block. It never fails:
// missing keys and values of an unexpected type leave the field absent.
func FromRawMap(raw map[string]any) Record {
	return Record{
		URL:             lookupString(raw, keyURL),
		WidthThumbnail:  lookupInt(raw, keyWidthThumbnail),
		HeightThumbnail: lookupInt(raw, keyHeightThumbnail),
		WidthOriginal:   lookupInt(raw, keyWidthOriginal),
		HeightOriginal:  lookupInt(raw, keyHeightOriginal),
		TitlePage:       lookupString(raw, keyTitlePage),
		TitleImage:      lookupString(raw, keyTitleImage),
		Extension:       lookupString(raw, keyExtension),
		Index:           UnsetIndex,
	}
}

// HasURL reports whether the record carries a source location
func (r Record) HasURL() bool {
	return r.URL != nil
}

// SourceURL returns the source location or "" when absent
func (r Record) SourceURL() string {
	if r.URL == nil {
		return ""
	}
	return *r.URL
}

// String renders the record as indented JSON
func (r Record) String() string {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Enumerate assigns Index 0..N-1 in slice order, overwriting prior values
func Enumerate(records []Record) {
	for i := range records {
		records[i].Index = i
	}
}

func lookupString(raw map[string]any, key string) *string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func lookupInt(raw map[string]any, key string) *int {
	v, ok := raw[key]
	if !ok {
		return nil
	}

	var n int
	switch val := v.(type) {
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil
		}
		n = int(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}
