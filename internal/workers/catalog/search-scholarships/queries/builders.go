package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// ScholarshipQuery defines the structure of a catalog search request
type ScholarshipQuery struct {
	Index         string
	QueryType     string
	Filters       map[string]interface{}
	ScholarshipID string
	Pagination    struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(sq ScholarshipQuery) (*esapi.SearchRequest, error) {
	if sq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch sq.QueryType {
	case "catalog_search":
		queryBody = buildCatalogSearchQuery(sq)
	case "similar_scholarships":
		queryBody = buildSimilarScholarshipsQuery(sq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, sq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{sq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &sq.Pagination.From,
		Size:   &sq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildCatalogSearchQuery builds the main catalog search query dynamically
func buildCatalogSearchQuery(sq ScholarshipQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search over the descriptive fields
	if keywords, ok := sq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"title^3", "description^2", "organization"},
				"type":   "best_fields",
			},
		})
	}

	// Scholarship type filter
	if schType, ok := sq.Filters["scholarshipType"].(string); ok && schType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"scholarship_type": schType},
		})
	}

	// Inactive entries stay out of search results unless asked for
	includeInactive := false
	if raw, ok := sq.Filters["includeInactive"].(bool); ok {
		includeInactive = raw
	}
	if !includeInactive {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"is_active": true},
		})
	}

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Sorting logic
	if sortBy, ok := sq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "title":
			query["sort"] = []map[string]interface{}{{"title.keyword": "asc"}}
		case "organization":
			query["sort"] = []map[string]interface{}{{"organization.keyword": "asc"}}
		}
	}

	return query
}

// buildSimilarScholarshipsQuery builds a "more like this" query for one entry
func buildSimilarScholarshipsQuery(sq ScholarshipQuery) map[string]interface{} {
	if sq.ScholarshipID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"title", "description", "organization"},
				"like": []map[string]interface{}{
					{"_index": sq.Index, "_id": sq.ScholarshipID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}
