package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RonShih/onchainfund-platform/internal/model"
)

// Store provides Postgres persistence for the fund registry.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertFunds inserts or updates discovered funds.
func (s *Store) UpsertFunds(ctx context.Context, funds []model.FundRecord) error {
	if len(funds) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, fund := range funds {
		batch.Queue(`
			INSERT INTO funds (
				chain_id, vault_address, comptroller_address, creator, name, symbol,
				denom_asset, denom_symbol, total_supply, block_number, tx_hash,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (chain_id, vault_address)
			DO UPDATE SET
				comptroller_address = EXCLUDED.comptroller_address,
				creator = EXCLUDED.creator,
				name = EXCLUDED.name,
				symbol = EXCLUDED.symbol,
				denom_asset = EXCLUDED.denom_asset,
				denom_symbol = EXCLUDED.denom_symbol,
				total_supply = EXCLUDED.total_supply,
				block_number = EXCLUDED.block_number,
				tx_hash = EXCLUDED.tx_hash,
				updated_at = now()
		`,
			int64(fund.ChainID),
			fund.VaultAddress,
			fund.ComptrollerAddress,
			fund.Creator,
			fund.Name,
			fund.Symbol,
			fund.DenomAsset,
			fund.DenomSymbol,
			fund.TotalSupply,
			int64(fund.BlockNumber),
			fund.TxHash,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range funds {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutFundBatch satisfies the storage sink interface.
func (s *Store) PutFundBatch(funds []model.FundRecord) error {
	return s.UpsertFunds(context.Background(), funds)
}

// ListFunds returns the registry's funds for a chain, newest first.
func (s *Store) ListFunds(ctx context.Context, chainID uint64, limit int) ([]model.FundRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, vault_address, comptroller_address, creator, name, symbol,
		       denom_asset, denom_symbol, total_supply, block_number, tx_hash
		FROM funds
		WHERE chain_id = $1
		ORDER BY block_number DESC
		LIMIT $2
	`, int64(chainID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funds []model.FundRecord
	for rows.Next() {
		var fund model.FundRecord
		var chain, block int64
		if err := rows.Scan(
			&chain,
			&fund.VaultAddress,
			&fund.ComptrollerAddress,
			&fund.Creator,
			&fund.Name,
			&fund.Symbol,
			&fund.DenomAsset,
			&fund.DenomSymbol,
			&fund.TotalSupply,
			&block,
			&fund.TxHash,
		); err != nil {
			return nil, err
		}
		fund.ChainID = uint64(chain)
		fund.BlockNumber = uint64(block)
		funds = append(funds, fund)
	}
	return funds, rows.Err()
}
