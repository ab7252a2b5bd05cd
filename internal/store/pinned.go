package store

import (
	"context"

	"github.com/JonMunkholm/linkbase/internal/core"
)

// PinActive returns a TableStore whose active table is always tableID,
// regardless of which table ts itself marks active. An empty tableID
// returns ts unchanged.
func PinActive(ts core.TableStore, tableID string) core.TableStore {
	if tableID == "" {
		return ts
	}
	return pinned{TableStore: ts, id: tableID}
}

type pinned struct {
	core.TableStore
	id string
}

func (p pinned) ActiveTable(ctx context.Context) (core.TableHandle, error) {
	return p.TableByID(ctx, p.id)
}
