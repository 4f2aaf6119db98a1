// Package market supplies sell-order book data. The file provider reads a
// JSON order book from the data directory on every fetch, so operators can
// stage local books for dry runs; live chain/indexer clients implement the
// same domain.MarketDataService interface outside this core.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// Static serves a fixed order book from memory.
type Static struct {
	Orders []domain.SellOrder
}

func (s *Static) OpenSellOrders(ctx context.Context) ([]domain.SellOrder, error) {
	return s.Orders, nil
}

// FileProvider reads the order book document from one JSON file.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider reading the book at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

type orderBookDocument struct {
	Version int                `json:"version"`
	Orders  []domain.SellOrder `json:"orders"`
}

// OpenSellOrders loads the current book. A missing file is an empty book,
// not an error: the selector treats no supply as a terminal outcome.
func (p *FileProvider) OpenSellOrders(ctx context.Context) ([]domain.SellOrder, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read order book: %w", err)
	}
	var doc orderBookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("order book %s: %w", p.path, err)
	}
	return doc.Orders, nil
}
