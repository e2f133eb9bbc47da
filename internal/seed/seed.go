// Package seed fills an empty store with sample records.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/records-api/internal/types"
)

// Counter reports how many records are stored.
type Counter interface {
	CountAll(ctx context.Context) (int64, error)
}

// Creator creates one record through the business rules.
type Creator interface {
	Create(ctx context.Context, in types.CreateRecordInput) types.Result[types.Record]
}

// Records is the sample data set.
var Records = []types.CreateRecordInput{
	{Name: "Juan Pérez", Email: "juan.perez@example.com", Age: 30},
	{Name: "María García", Email: "maria.garcia@example.com", Age: 25},
	{Name: "Carlos López", Email: "carlos.lopez@example.com", Age: 28},
	{Name: "Ana Martínez", Email: "ana.martinez@example.com", Age: 32},
	{Name: "Luis Rodríguez", Email: "luis.rodriguez@example.com", Age: 27},
	{Name: "Carmen Sánchez", Email: "carmen.sanchez@example.com", Age: 29},
	{Name: "Pedro Fernández", Email: "pedro.fernandez@example.com", Age: 35},
	{Name: "Isabel Torres", Email: "isabel.torres@example.com", Age: 26},
	{Name: "Miguel Ruiz", Email: "miguel.ruiz@example.com", Age: 31},
	{Name: "Laura Jiménez", Email: "laura.jimenez@example.com", Age: 24},
	{Name: "Roberto Vargas", Email: "roberto.vargas@example.com", Age: 33},
	{Name: "Sofía Herrera", Email: "sofia.herrera@example.com", Age: 28},
}

// Run creates Records when the store is empty and returns how many were
// created. A non-empty store is left alone.
func Run(ctx context.Context, store Counter, svc Creator, log *slog.Logger) (int, error) {
	n, err := store.CountAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: count: %w", err)
	}
	if n > 0 {
		log.Info("store already has records, skipping seed", slog.Int64("count", n))
		return 0, nil
	}

	created := 0
	for _, in := range Records {
		res := svc.Create(ctx, in)
		if !res.Success {
			return created, fmt.Errorf("seed: create %s: %w", in.Email, res.Err)
		}
		created++
	}
	log.Info("seeded records", slog.Int("count", created))
	return created, nil
}
