package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

// AdjustBalance adds adj.Amount to the member's balance in place and records
// the adjustment, both in one transaction.
func (s *SQLiteStore) AdjustBalance(ctx context.Context, adj *models.BalanceAdjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}
	if adj.CreatedAt == 0 {
		adj.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE group_members SET balance = balance + ? WHERE group_id = ? AND phonenumber = ?",
		adj.Amount, adj.GroupID, adj.Phonenumber,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s of group %s: %w", adj.Phonenumber, adj.GroupID, storage.ErrNotFound)
	}

	if err := touchGroup(ctx, tx, adj.GroupID, adj.CreatedAt); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO balance_adjustments (id, group_id, phonenumber, amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		adj.ID, adj.GroupID, adj.Phonenumber, adj.Amount, adj.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert adjustment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAdjustments retrieves all balance adjustments of a group, newest first.
func (s *SQLiteStore) ListAdjustments(ctx context.Context, groupID string) ([]*models.BalanceAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, phonenumber, amount, created_at
		 FROM balance_adjustments WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []*models.BalanceAdjustment
	for rows.Next() {
		adj := &models.BalanceAdjustment{}
		if err := rows.Scan(&adj.ID, &adj.GroupID, &adj.Phonenumber, &adj.Amount, &adj.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adjustments: %w", err)
	}

	return adjustments, nil
}
