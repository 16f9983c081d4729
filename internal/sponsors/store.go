// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package sponsors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/parfour/parfour/internal/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	sponsorKeyPrefix = "sponsor:"
	winnerKeyPrefix  = "winner:"
	fundsKey         = "funds:total"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

var validate = validator.New()

// tierRank orders sponsors on the public page, highest tier first.
var tierRank = map[string]int{
	TierPlatinum: 0,
	TierGold:     1,
	TierSilver:   2,
	TierBronze:   3,
}

// Store persists site content in BadgerDB.
type Store struct {
	db *badger.DB
}

// NewStore creates a content store.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// recordOp increments the store operation counter.
func recordOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.StoreOperations.WithLabelValues(operation, result).Inc()
}

// setJSON marshals a value and writes it under key.
func (s *Store) setJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON reads key and unmarshals into out.
func (s *Store) getJSON(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// UpsertSponsor validates and stores a sponsor. A missing ID means
// create; the generated ID is set on the passed struct.
func (s *Store) UpsertSponsor(_ context.Context, sponsor *Sponsor) (err error) {
	defer func() { recordOp("upsert_sponsor", err) }()

	if err = validate.Struct(sponsor); err != nil {
		return fmt.Errorf("invalid sponsor: %w", err)
	}

	now := time.Now()
	if sponsor.ID == "" {
		sponsor.ID = uuid.New().String()
		sponsor.CreatedAt = now
	}
	sponsor.UpdatedAt = now

	return s.setJSON(sponsorKeyPrefix+sponsor.ID, sponsor)
}

// GetSponsor returns one sponsor by ID.
func (s *Store) GetSponsor(_ context.Context, id string) (*Sponsor, error) {
	var sponsor Sponsor
	if err := s.getJSON(sponsorKeyPrefix+id, &sponsor); err != nil {
		return nil, err
	}
	return &sponsor, nil
}

// ListSponsors returns all sponsors ordered by tier, then name.
func (s *Store) ListSponsors(_ context.Context) (sponsors []*Sponsor, err error) {
	defer func() { recordOp("list_sponsors", err) }()

	err = s.scanPrefix(sponsorKeyPrefix, func(val []byte) error {
		var sponsor Sponsor
		if err := json.Unmarshal(val, &sponsor); err != nil {
			return err
		}
		sponsors = append(sponsors, &sponsor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sponsors, func(i, j int) bool {
		if tierRank[sponsors[i].Tier] != tierRank[sponsors[j].Tier] {
			return tierRank[sponsors[i].Tier] < tierRank[sponsors[j].Tier]
		}
		return sponsors[i].Name < sponsors[j].Name
	})
	return sponsors, nil
}

// DeleteSponsor removes a sponsor. Missing records are not an error.
func (s *Store) DeleteSponsor(_ context.Context, id string) (err error) {
	defer func() { recordOp("delete_sponsor", err) }()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sponsorKeyPrefix + id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete sponsor: %w", err)
		}
		return nil
	})
}

// UpsertWinner validates and stores a past tournament result.
func (s *Store) UpsertWinner(_ context.Context, winner *Winner) (err error) {
	defer func() { recordOp("upsert_winner", err) }()

	if err = validate.Struct(winner); err != nil {
		return fmt.Errorf("invalid winner: %w", err)
	}

	now := time.Now()
	if winner.ID == "" {
		winner.ID = uuid.New().String()
		winner.CreatedAt = now
	}
	winner.UpdatedAt = now

	return s.setJSON(winnerKeyPrefix+winner.ID, winner)
}

// ListWinners returns all past results, most recent year first.
func (s *Store) ListWinners(_ context.Context) (winners []*Winner, err error) {
	defer func() { recordOp("list_winners", err) }()

	err = s.scanPrefix(winnerKeyPrefix, func(val []byte) error {
		var winner Winner
		if err := json.Unmarshal(val, &winner); err != nil {
			return err
		}
		winners = append(winners, &winner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(winners, func(i, j int) bool {
		if winners[i].Year != winners[j].Year {
			return winners[i].Year > winners[j].Year
		}
		return winners[i].Division < winners[j].Division
	})
	return winners, nil
}

// DeleteWinner removes a past result. Missing records are not an error.
func (s *Store) DeleteWinner(_ context.Context, id string) (err error) {
	defer func() { recordOp("delete_winner", err) }()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(winnerKeyPrefix + id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete winner: %w", err)
		}
		return nil
	})
}

// GetFunds returns the funds-raised counter. A site that has never set
// it gets a zeroed counter, not an error.
func (s *Store) GetFunds(_ context.Context) (*FundsTotal, error) {
	var funds FundsTotal
	err := s.getJSON(fundsKey, &funds)
	if errors.Is(err, ErrNotFound) {
		return &FundsTotal{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &funds, nil
}

// SetFunds validates and stores the funds-raised counter.
func (s *Store) SetFunds(_ context.Context, funds *FundsTotal) (err error) {
	defer func() { recordOp("set_funds", err) }()

	if err = validate.Struct(funds); err != nil {
		return fmt.Errorf("invalid funds total: %w", err)
	}
	funds.UpdatedAt = time.Now()
	return s.setJSON(fundsKey, funds)
}

// scanPrefix calls fn with every value under prefix.
func (s *Store) scanPrefix(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return fmt.Errorf("scan %s: %w", prefix, err)
			}
		}
		return nil
	})
}
