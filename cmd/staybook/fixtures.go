package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

type fixtureFile struct {
	Properties []struct {
		ID       string `json:"id"`
		OwnerID  string `json:"owner_id"`
		Title    string `json:"title"`
		RentFee  int64  `json:"rent_fee"`
		Currency string `json:"currency"`
	} `json:"properties"`
	Accounts []struct {
		ID         string `json:"id"`
		BillingRef string `json:"billing_ref"`
	} `json:"accounts"`
}

// loadFixtures seeds properties and accounts that do not exist yet. Rows
// already present are left untouched, so restarts keep their counters.
func loadFixtures(ctx context.Context, factory uow.UoWFactory, path, currency string, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	now := time.Now().UTC()
	created := 0
	err = uow.Run(ctx, factory, 3, func(ctx context.Context, unit uow.UnitOfWork) error {
		created = 0
		for _, f := range file.Properties {
			if _, err := unit.Properties().ByID(ctx, property.ID(f.ID)); err == nil {
				continue
			} else if !errors.Is(err, property.ErrNotFound) {
				return err
			}
			cur := f.Currency
			if cur == "" {
				cur = currency
			}
			fee, err := money.New(f.RentFee, cur)
			if err != nil {
				return fmt.Errorf("property %s: %w", f.ID, err)
			}
			p, err := property.New(property.CreateParams{ID: property.ID(f.ID), OwnerID: f.OwnerID, Title: f.Title, RentFee: fee, Now: now})
			if err != nil {
				return fmt.Errorf("property %s: %w", f.ID, err)
			}
			if err := unit.Properties().Save(ctx, p); err != nil {
				return err
			}
			created++
		}
		for _, f := range file.Accounts {
			if _, err := unit.Accounts().ByID(ctx, f.ID); err == nil {
				continue
			} else if !errors.Is(err, user.ErrNotFound) {
				return err
			}
			a, err := user.NewAccount(f.ID, f.BillingRef, now)
			if err != nil {
				return fmt.Errorf("account %s: %w", f.ID, err)
			}
			if err := unit.Accounts().Save(ctx, a); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("fixtures loaded", "path", path, "created", created)
	return nil
}
