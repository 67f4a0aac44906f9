package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrMalformedDocument = goerr.New("malformed memo document")

	// epoch stands in for records that never carried a date.
	epoch = time.Unix(0, 0).UTC()
)

// memoDocument is the wire form of a Memo in storage and export files.
type memoDocument struct {
	ID          string `json:"id" yaml:"id"`
	SourceURL   string `json:"sourceUrl" yaml:"sourceUrl"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Text        string `json:"text" yaml:"text"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string `json:"updatedAt" yaml:"updatedAt"`
}

func (m Memo) document() memoDocument {
	return memoDocument{
		ID:          string(m.ID),
		SourceURL:   m.SourceURL,
		DisplayName: m.DisplayName,
		Text:        m.Text,
		CreatedAt:   FormatTime(m.CreatedAt),
		UpdatedAt:   FormatTime(m.UpdatedAt),
	}
}

// MarshalJSON writes the memo in its storage form with canonical timestamps.
func (m Memo) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.document())
}

// MarshalYAML writes the memo with the same field names as its JSON form.
func (m Memo) MarshalYAML() (any, error) {
	return m.document(), nil
}

// legacyRecord is the union of every record shape the store has been persisted in:
// {url, text}, {id, text, timestamp}, {id, text, timestamp, createdAt},
// {id, twitterUrl, username, memo, createdAt, updatedAt} and the current memoDocument.
type legacyRecord struct {
	ID          string  `json:"id"`
	SourceURL   string  `json:"sourceUrl"`
	TwitterURL  string  `json:"twitterUrl"`
	URL         string  `json:"url"`
	DisplayName *string `json:"displayName"`
	Username    string  `json:"username"`
	Text        *string `json:"text"`
	Memo        *string `json:"memo"`
	Timestamp   string  `json:"timestamp"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type legacyEntry struct {
	key    string
	record legacyRecord
}

// EncodeStore serializes the store as a JSON object keyed by memo ID. Keys are written in sorted
// order, so equal stores always encode to identical bytes.
func EncodeStore(store MemoStore, pretty bool) ([]byte, error) {
	if store == nil {
		store = MemoStore{}
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(store, "", "  ")
	} else {
		data, err = json.Marshal(store)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode memo store")
	}
	return data, nil
}

// DecodeStore parses an export document: a JSON object whose values are memo records with
// string-typed fields. Records from older schema versions are migrated. Records whose ID cannot be
// derived are dropped and their keys returned as skipped.
func DecodeStore(data []byte) (MemoStore, []string, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, goerr.Wrap(ErrMalformedDocument, "invalid JSON", goerr.V("error", err.Error()))
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, nil, err
	}

	var records map[string]legacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, goerr.Wrap(ErrMalformedDocument, "invalid memo records", goerr.V("error", err.Error()))
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]legacyEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, legacyEntry{key: key, record: records[key]})
	}

	store, skipped := migrate(entries)
	return store, skipped, nil
}

// DecodeLegacyStore accepts everything DecodeStore does plus the list form used by the earliest
// versions, [{url, text}] and [{id, text, timestamp}].
func DecodeLegacyStore(data []byte) (MemoStore, []string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return DecodeStore(data)
	}

	var records []legacyRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, nil, goerr.Wrap(ErrMalformedDocument, "invalid legacy memo list", goerr.V("error", err.Error()))
	}

	entries := make([]legacyEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, legacyEntry{record: record})
	}

	store, skipped := migrate(entries)
	return store, skipped, nil
}

func migrate(entries []legacyEntry) (MemoStore, []string) {
	store := make(MemoStore, len(entries))
	var skipped []string

	for _, entry := range entries {
		memo := migrateRecord(entry.key, entry.record)
		if memo == nil {
			skipped = append(skipped, skippedName(entry))
			continue
		}

		existing, ok := store[memo.ID]
		if !ok {
			store[memo.ID] = memo
			continue
		}

		// Several legacy keys can spell the same handle; keep the latest content and the
		// earliest creation time.
		if memo.UpdatedAt.After(existing.UpdatedAt) {
			if existing.CreatedAt.Before(memo.CreatedAt) {
				memo.CreatedAt = existing.CreatedAt
			}
			store[memo.ID] = memo
		} else if memo.CreatedAt.Before(existing.CreatedAt) {
			existing.CreatedAt = memo.CreatedAt
		}
	}

	return store, skipped
}

func migrateRecord(key string, r legacyRecord) *Memo {
	sourceURL := firstNonEmpty(r.SourceURL, r.TwitterURL, r.URL, key, r.ID)

	id := DeriveID(sourceURL)
	if id == "" {
		id = DeriveID(r.ID)
	}
	if id == "" {
		id = DeriveID(key)
	}
	if id == "" {
		return nil
	}

	text := ""
	if r.Text != nil {
		text = *r.Text
	} else if r.Memo != nil {
		text = *r.Memo
	}

	// An empty displayName is a valid value; only a missing one is backfilled.
	displayName := firstNonEmpty(r.Username, ExtractHandle(sourceURL))
	if r.DisplayName != nil {
		displayName = *r.DisplayName
	}

	updatedAt, hasUpdated := parseOptionalTime(firstNonEmpty(r.UpdatedAt, r.Timestamp))
	createdAt, hasCreated := parseOptionalTime(r.CreatedAt)
	switch {
	case !hasUpdated && !hasCreated:
		createdAt, updatedAt = epoch, epoch
	case !hasCreated:
		createdAt = updatedAt
	case !hasUpdated:
		updatedAt = createdAt
	}
	if createdAt.After(updatedAt) {
		createdAt = updatedAt
	}

	return &Memo{
		ID:          id,
		SourceURL:   sourceURL,
		DisplayName: displayName,
		Text:        text,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func parseOptionalTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func skippedName(entry legacyEntry) string {
	return firstNonEmpty(entry.key, entry.record.ID, entry.record.URL, "(unnamed)")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var documentSchema = func() *jsonschema.Resolved {
	fields := []string{
		"id", "sourceUrl", "displayName", "text", "createdAt", "updatedAt",
		"timestamp", "url", "twitterUrl", "username", "memo",
	}
	properties := make(map[string]*jsonschema.Schema, len(fields))
	for _, field := range fields {
		properties[field] = &jsonschema.Schema{Type: "string"}
	}

	schema := &jsonschema.Schema{
		Type: "object",
		AdditionalProperties: &jsonschema.Schema{
			Type:       "object",
			Properties: properties,
		},
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic("memo document schema does not resolve: " + err.Error())
	}
	return resolved
}()

// ValidateDocument checks that a decoded JSON value is an object of memo records whose known
// fields are all strings.
func ValidateDocument(doc any) error {
	if err := documentSchema.Validate(doc); err != nil {
		return goerr.Wrap(ErrMalformedDocument, "memo document does not match schema", goerr.V("error", err.Error()))
	}
	return nil
}
