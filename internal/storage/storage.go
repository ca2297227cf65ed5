package storage

import "github.com/RonShih/onchainfund-platform/internal/model"

// Storage defines a sink for discovered fund records.
type Storage interface {
	PutFundBatch(funds []model.FundRecord) error
}
