package main

import (
	"context"
	"errors"
	"log"

	"claimguard.ai/internal/config"
	"claimguard.ai/internal/persistence/indexdb"
	"claimguard.ai/internal/protect/interact"
	"claimguard.ai/internal/protect/materials"
)

type materialList struct {
	name  string
	field *string
}

func materialLists(m *config.Materials) []materialList {
	return []materialList{
		{"access_trust", &m.AccessTrust},
		{"container_trust", &m.ContainerTrust},
		{"explodable", &m.Explodable},
	}
}

// persistMaterialLists records the effective lists so operators can inspect
// what the running server enforces.
func persistMaterialLists(idx *indexdb.SQLiteIndex, cfg config.Config, logger *log.Logger) {
	rules := interact.FromConfig(cfg.Materials)
	ctx := context.Background()
	for _, l := range []struct {
		name string
		c    *materials.Collection
	}{
		{"access_trust", rules.Access},
		{"container_trust", rules.Container},
		{"explodable", rules.Explodable},
	} {
		if err := idx.SaveMaterialList(ctx, l.name, l.c); err != nil {
			logger.Printf("index: %v", err)
		}
	}
}

// restoreMaterialLists replaces each list in m with the last persisted one.
// Lists never persisted keep their value from m.
func restoreMaterialLists(idx *indexdb.SQLiteIndex, m config.Materials, logger *log.Logger) (config.Materials, int) {
	ctx := context.Background()
	n := 0
	for _, l := range materialLists(&m) {
		c, err := idx.LoadMaterialList(ctx, l.name)
		if errors.Is(err, indexdb.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Printf("index: load %s: %v", l.name, err)
			continue
		}
		*l.field = c.String()
		n++
	}
	return m, n
}
