package entity

import "github.com/sangkips/posync/internal/domain/enum"

// PendingDelete is a delete intent the server has not confirmed yet
type PendingDelete struct {
	ID    string         `json:"id"`
	Table enum.SyncTable `json:"table"`
}
