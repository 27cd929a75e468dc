// internal/leadindex/indexer.go
package leadindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"pelviu-funnel/internal/models"
)

const DefaultIndex = "pelviu-leads"

// Indexer mirrors lead records into Elasticsearch for ad-hoc search.
// The record store stays the source of truth.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index}
}

func (i *Indexer) IndexName() string { return i.index }

type leadDocument struct {
	models.LeadRecord
	IsLead        bool      `json:"isLead"`
	IndexedAt     time.Time `json:"indexedAt"`
	SevereAnswers int       `json:"severeAnswers"`
}

// Index upserts the record under its id.
func (i *Indexer) Index(ctx context.Context, record models.LeadRecord) error {
	severe := 0
	for _, score := range record.Answers {
		if score >= 20 {
			severe++
		}
	}

	body, err := json.Marshal(leadDocument{
		LeadRecord:    record,
		IsLead:        record.Contact.IsLead(),
		IndexedAt:     time.Now().UTC(),
		SevereAnswers: severe,
	})
	if err != nil {
		return fmt.Errorf("failed to encode lead document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index lead %s failed: %s", record.ID, res.String())
	}
	return nil
}

// DeleteAll removes every mirrored document. A missing index is not an error.
func (i *Indexer) DeleteAll(ctx context.Context) error {
	req := esapi.DeleteByQueryRequest{
		Index:     []string{i.index},
		Body:      strings.NewReader(`{"query":{"match_all":{}}}`),
		Conflicts: "proceed",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("delete by query failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("delete mirrored leads failed: %s", res.String())
	}
	return nil
}
