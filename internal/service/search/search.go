package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mkuznetsov/petrofleet/internal/models"
)

const VehicleIndex = "vehicles"

// Search runs a fuzzy multi-field query over the vehicle index.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Vehicle, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"plate^2", "make", "model"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Vehicle `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	vehicles := make([]models.Vehicle, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		vehicles[i] = hit.Source
	}
	return r.Hits.Total.Value, vehicles, nil
}

// IndexVehicle upserts a vehicle document keyed by its database id.
func IndexVehicle(ctx context.Context, es *elasticsearch.Client, index string, v *models.Vehicle) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("index vehicle: marshal: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(fmt.Sprint(v.ID)),
	)
	if err != nil {
		return fmt.Errorf("index vehicle: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index vehicle: %s", res.Status())
	}
	return nil
}

// DeleteVehicle removes a vehicle document; a missing document is fine.
func DeleteVehicle(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		fmt.Sprint(id),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete vehicle doc: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete vehicle doc: %s", res.Status())
	}
	return nil
}
