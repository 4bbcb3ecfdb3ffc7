package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/frunko/frunko/internal/models"
)

// OrderIndexer mirrors orders into Elasticsearch for the admin dashboard's
// order search. A nil *OrderIndexer is a valid no-op collaborator.
type OrderIndexer struct {
	ES    *elasticsearch.Client
	Index string
}

type orderDoc struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaytmOrderID  string `json:"paytm_order_id"`
	CouponCode    string `json:"coupon_code"`
	TotalAmount   string `json:"total_amount"`
	CreatedAt     string `json:"created_at"`
}

func docFromOrder(o *models.Order) orderDoc {
	return orderDoc{
		ID:            o.ID.String(),
		UserID:        o.UserID.String(),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaytmOrderID:  o.PaytmOrderID,
		CouponCode:    o.CouponCode,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (ix *OrderIndexer) IndexOrder(ctx context.Context, order *models.Order) error {
	if ix == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(docFromOrder(order)); err != nil {
		return fmt.Errorf("index order: %w", err)
	}

	res, err := ix.ES.Index(
		ix.Index,
		&buf,
		ix.ES.Index.WithContext(ctx),
		ix.ES.Index.WithDocumentID(order.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index order: %s", res.Status())
	}
	return nil
}

// SearchOrders runs a multi_match over the indexed order fields.
func (ix *OrderIndexer) SearchOrders(ctx context.Context, query string, from, size int) (int64, []map[string]interface{}, error) {
	if ix == nil {
		return 0, nil, fmt.Errorf("search is not configured")
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.TrimSpace(query),
				"fields": []string{"user_id", "status", "payment_status", "paytm_order_id", "coupon_code"},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Index),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search orders: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search orders: decode: %w", err)
	}

	docs := make([]map[string]interface{}, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
